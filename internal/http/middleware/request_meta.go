package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/concesionario/backoffice-api/internal/service"
)

const maxUserAgentLength = 512

// RequestMetadata stores the client IP and user agent in the request context
// so services can attach them to audit entries.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.UserAgent()
		if len(ua) > maxUserAgentLength {
			ua = ua[:maxUserAgentLength]
		}
		ctx := service.WithRequestMeta(r.Context(), service.RequestMeta{
			IP:        ClientIP(r),
			UserAgent: ua,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the originating client address. The first X-Forwarded-For
// entry wins, then X-Real-IP, then the connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
