package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/domain"
)

// RequireAdmin rejects actors outside the admin tier. It must run after
// authentication.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.FromContext(r.Context())
		if !ok {
			writeProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Authentication required")
			return
		}
		if !actor.CanAdminister() {
			writeProblem(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeProblem(w http.ResponseWriter, status int, errType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
