package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"go.aocore.tech/internal/platform/common"
)

// Middleware authenticates requests and enforces roles.
type Middleware struct {
	verifier *Verifier
	disabled bool
}

// NewMiddleware creates the auth middleware. verifier may be nil only when disabled.
func NewMiddleware(verifier *Verifier, disabled bool) *Middleware {
	if disabled {
		slog.Warn("Authentication is DISABLED - every request runs as an anonymous owner")
	}
	return &Middleware{verifier: verifier, disabled: disabled}
}

// Authenticate requires a valid bearer token and stores the principal in the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), AnonymousPrincipal())))
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		p, err := m.verifier.Verify(token)
		if err != nil {
			slog.Debug("Token validation failed", "error", err)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole ensures the principal has one of the specified roles
func (m *Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !p.HasRole(roles...) {
				writeJSONError(w, http.StatusForbidden, common.ErrCodeInsufficientPermissions, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows owners and admins.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(RoleOwner, RoleAdmin)(next)
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
