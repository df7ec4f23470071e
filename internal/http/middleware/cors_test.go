package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func preflight(t *testing.T, cfg *config.CORSConfig, env, origin string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.CORS(cfg, env, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/clients", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func corsConfig(origins ...string) *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.CORSConfig
		env     string
		origin  string
		allowed bool
	}{
		{"development without origins allows any", corsConfig(), "development", "http://localhost:5173", true},
		{"explicit origin allowed", corsConfig("https://backoffice.concesionario.com"), "production", "https://backoffice.concesionario.com", true},
		{"explicit list rejects others", corsConfig("https://backoffice.concesionario.com"), "production", "https://evil.example.com", false},
		{"production without origins denies", corsConfig(), "production", "https://backoffice.concesionario.com", false},
		{"wildcard allows any", corsConfig("*"), "staging", "https://anything.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := preflight(t, tt.cfg, tt.env, tt.origin)
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_ExposesRequestID(t *testing.T) {
	h := middleware.CORS(corsConfig("https://backoffice.concesionario.com"), "production", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://backoffice.concesionario.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}
