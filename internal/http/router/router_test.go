package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/concesionario/backoffice-api/internal/http/handler"
	"github.com/concesionario/backoffice-api/internal/http/middleware"
	"github.com/concesionario/backoffice-api/internal/http/router"
	"github.com/concesionario/backoffice-api/internal/repository"
	"github.com/concesionario/backoffice-api/internal/service"
	"github.com/concesionario/backoffice-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPassword = "Password123"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	tokens *auth.TokenIssuer
	http   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := zap.NewNop()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "backoffice-api", Environment: "development"},
		Auth:      config.AuthConfig{JWTSecret: "router-test-secret", Issuer: "backoffice-api-test", TokenTTL: 60, BcryptCost: 4},
		Audit:     config.AuditConfig{ListLimit: 100, ExportLimit: 1000},
		Server:    config.ServerConfig{EnableSwagger: true},
		Security:  config.SecurityConfig{ContentTypeNosniff: true, FrameOptions: "DENY"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	repos := service.UserRepositories{
		Users:   repository.NewUserRepository(db),
		Themes:  repository.NewThemeRepository(db),
		Clients: repository.NewClientRepository(db),
		Leads:   repository.NewLeadRepository(db),
		Events:  repository.NewEventRepository(db),
		Notes:   repository.NewNoteRepository(db),
		Audit:   repository.NewAuditLogRepository(db),
	}
	tokens := auth.NewTokenIssuer(&cfg.Auth)
	audit := service.NewAuditLogService(repos.Audit, nil, cfg.Audit, log)
	users := service.NewUserService(db, repos, audit, cfg.Auth.BcryptCost, log)
	events := service.NewEventService(repos.Events, repos.Clients, repos.Leads, log)

	rt := router.NewRouter(cfg, log, db,
		auth.NewMiddleware(tokens, repos.Users, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		router.Handlers{
			Auth:    handler.NewAuthHandler(service.NewAuthService(users, repos.Users, tokens, audit, false, log), log),
			User:    handler.NewUserHandler(users, log),
			Profile: handler.NewProfileHandler(users, service.NewThemeService(repos.Themes), log),
			Client:  handler.NewClientHandler(service.NewClientService(db, repos.Clients, repos.Users, repos.Notes, audit, log), log),
			Event:   handler.NewEventHandler(events, log),
			Lead:    handler.NewLeadHandler(service.NewLeadService(db, repos.Leads, repos.Events, repos.Notes, events, log), log),
			Audit:   handler.NewAuditHandler(audit, log),
		},
	)

	return &testServer{t: t, db: db, tokens: tokens, http: rt.Setup()}
}

// user inserts an account that can log in with testPassword
func (s *testServer) user(username string, role domain.Role) *domain.User {
	s.t.Helper()
	u := testutil.CreateUser(s.t, s.db, username, role)
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(s.t, err)
	u.PasswordHash = hash
	require.NoError(s.t, s.db.Save(u).Error)
	return u
}

func (s *testServer) token(u *domain.User) string {
	s.t.Helper()
	token, _, err := s.tokens.Issue(u)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "190.2.3.4:5000"
	req.Header.Set("User-Agent", "router-test")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.http.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = s.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var ready map[string]interface{}
	decode(t, w, &ready)
	assert.Equal(t, "healthy", ready["status"])

	w = s.do(http.MethodGet, "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	s.user("usuario1", domain.RoleVendor)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "usuario1", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login domain.LoginResponse
	decode(t, w, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "usuario1", login.User.Username)

	w = s.do(http.MethodGet, "/api/v1/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.UserDTO
	decode(t, w, &me)
	assert.Equal(t, domain.RoleVendor, me.Role)

	// Login is recorded with the request metadata
	var entry domain.AuditLog
	require.NoError(t, s.db.Where("action = ?", domain.AuditActionLogin).First(&entry).Error)
	assert.Equal(t, "190.2.3.4", entry.IPAddress)
	assert.Equal(t, "router-test", entry.UserAgent)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "usuario1", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Registration is disabled in this server
	w = s.do(http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		Username: "nuevo", Email: "nuevo@example.com", Password: testPassword, PasswordConfirm: testPassword,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/clients", "/api/v1/leads", "/api/v1/events", "/api/v1/me/profile", "/api/v1/users", "/api/v1/audit"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	vendor := s.token(s.user("usuario1", domain.RoleVendor))
	supervisor := s.token(s.user("supervisor1", domain.RoleSupervisor))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/users", vendor, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/audit", vendor, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/users", supervisor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &page)
	assert.Equal(t, int64(2), page.Total)
}

func TestClientLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(s.user("usuario1", domain.RoleVendor))
	other := s.token(s.user("usuario2", domain.RoleVendor))

	w := s.do(http.MethodPost, "/api/v1/clients", owner, testutil.ClientRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.ClientDTO
	decode(t, w, &created)
	assert.Equal(t, "/api/v1/clients/"+created.ID.String(), w.Header().Get("Location"))
	assert.Equal(t, "20123456786", created.CUIT)

	path := "/api/v1/clients/" + created.ID.String()
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/clients/not-a-uuid", owner, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/clients?search=garcia", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64              `json:"total"`
		Data  []domain.ClientDTO `json:"data"`
	}
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)

	w = s.do(http.MethodGet, "/api/v1/clients", other, nil)
	decode(t, w, &list)
	assert.Equal(t, int64(0), list.Total)

	w = s.do(http.MethodPost, path+"/notes", owner, domain.CreateNoteRequest{Body: "Llamar el lunes"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(http.MethodGet, path+"/notes", owner, nil)
	var notes []domain.NoteDTO
	decode(t, w, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "Llamar el lunes", notes[0].Body)

	// Vendors cannot delete
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, owner, nil).Code)
}

func TestClientValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.token(s.user("usuario1", domain.RoleVendor))

	req := testutil.ClientRequest()
	req.CUIT = "20-12345678-0"
	req.Email = "not-an-email"

	w := s.do(http.MethodPost, "/api/v1/clients", token, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body domain.APIError
	decode(t, w, &body)
	assert.Equal(t, domain.ErrorTypeValidation, body.Type)
	assert.Contains(t, body.Errors, "cuit")
	assert.Contains(t, body.Errors, "email")

	w = s.do(http.MethodPost, "/api/v1/clients", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadInterviewAndCalendar(t *testing.T) {
	s := newTestServer(t)
	token := s.token(s.user("usuario1", domain.RoleVendor))

	w := s.do(http.MethodPost, "/api/v1/leads", token, domain.LeadRequest{FullName: "Pedro Interesado", Phone: "11 5555 1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var lead domain.LeadDTO
	decode(t, w, &lead)

	w = s.do(http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/interview", token, map[string]interface{}{
		"title":    "",
		"startsAt": "2026-11-02T15:00:00Z",
		"kind":     "meeting",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var event domain.EventDTO
	decode(t, w, &event)
	assert.Equal(t, domain.EventKindInterview, event.Kind)
	assert.Equal(t, "Entrevista", event.Title)
	require.NotNil(t, event.LeadID)
	assert.Equal(t, lead.ID, *event.LeadID)

	w = s.do(http.MethodGet, "/api/v1/events?from=2026-11-01&to=2026-11-30", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []domain.EventDTO
	decode(t, w, &events)
	assert.Len(t, events, 1)

	w = s.do(http.MethodGet, "/api/v1/events?from=2026-12-01&to=2026-12-31", token, nil)
	decode(t, w, &events)
	assert.Empty(t, events)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/events?from=ayer", token, nil).Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/leads/"+lead.ID.String(), token, nil).Code)
	w = s.do(http.MethodGet, "/api/v1/events?from=2026-11-01&to=2026-11-30", token, nil)
	decode(t, w, &events)
	assert.Empty(t, events)
}

func TestThemeToggle(t *testing.T) {
	s := newTestServer(t)
	token := s.token(s.user("usuario1", domain.RoleVendor))

	var theme domain.ThemeDTO
	decode(t, s.do(http.MethodGet, "/api/v1/me/theme", token, nil), &theme)
	assert.Equal(t, domain.ThemeLight, theme.Theme)

	decode(t, s.do(http.MethodPost, "/api/v1/me/theme/toggle", token, nil), &theme)
	assert.Equal(t, domain.ThemeDark, theme.Theme)

	decode(t, s.do(http.MethodGet, "/api/v1/me/theme", token, nil), &theme)
	assert.Equal(t, domain.ThemeDark, theme.Theme)
}

func TestAuditEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(s.user("admin1", domain.RoleAdmin))
	super := s.token(testutil.CreateSuperuser(t, s.db, "Arkangel"))
	s.user("usuario1", domain.RoleVendor)

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "usuario1", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/audit?action=login", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []domain.AuditLogDTO
	decode(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "usuario1", logs[0].Actor)

	w = s.do(http.MethodGet, "/api/v1/audit/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit_log.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeff"))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/v1/audit", super, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/audit?before=2099-01-01", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/v1/audit?before=2099-01-01", super, nil).Code)

	w = s.do(http.MethodDelete, "/api/v1/audit?before=2020-01-01", super, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var purge domain.PurgeResponse
	decode(t, w, &purge)
	assert.Equal(t, int64(0), purge.Deleted)
}
