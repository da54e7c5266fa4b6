package core

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"streetplan/internal/types"
)

// AdminTokenHeader carries the administrator token on admin requests.
const AdminTokenHeader = "X-Admin-Token"

// AdminAuthenticator decouples the HTTP layer from how the admin token is
// stored, allowing for easy substitution in tests.
type AdminAuthenticator interface {
	// Configured reports whether an admin token exists at all.
	Configured() bool
	// Verify reports whether token matches the configured admin token.
	Verify(token string) bool
}

// TokenAuthenticator checks the X-Admin-Token header against the configured
// secret. A secret starting with "$2" is treated as a bcrypt hash;
// anything else is compared in constant time.
type TokenAuthenticator struct {
	secret types.SecretString
	hashed bool
}

// NewTokenAuthenticator returns an authenticator for secret. An empty secret
// yields an authenticator that is not Configured.
func NewTokenAuthenticator(secret types.SecretString) *TokenAuthenticator {
	return &TokenAuthenticator{
		secret: secret,
		hashed: strings.HasPrefix(secret.Unmask(), "$2"),
	}
}

func (a *TokenAuthenticator) Configured() bool {
	return a.secret.IsSet()
}

func (a *TokenAuthenticator) Verify(token string) bool {
	if !a.Configured() || token == "" {
		return false
	}
	if a.hashed {
		return bcrypt.CompareHashAndPassword([]byte(a.secret.Unmask()), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.secret.Unmask()), []byte(token)) == 1
}

// AdminTokenMiddleware marks the request context as admin when a valid
// X-Admin-Token is presented. It never rejects a request: public routes stay
// reachable with a wrong token and RequireAdmin decides for admin routes.
func (s *Server) AdminTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AdminTokenHeader)
		if token != "" && s.Authenticator != nil && s.Authenticator.Verify(token) {
			r = r.WithContext(types.WithAdmin(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards a route with the admin token.
//
//   - No admin token configured: 500 internal_admin_token_unconfigured.
//   - Token missing or wrong:    401 auth_token_invalid.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Authenticator == nil || !s.Authenticator.Configured() {
			s.Logger.Error("admin route requested but ADMIN_TOKEN is not configured",
				slog.String("path", r.URL.Path),
			)
			Error(w, r, types.NewAppError(types.ErrCodeInternalAdminUnconfigured, "ADMIN_TOKEN is not configured", nil))
			return
		}

		if !types.IsAdmin(r.Context()) {
			s.Logger.Warn("admin authentication failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Bool("token_present", r.Header.Get(AdminTokenHeader) != ""),
			)
			Error(w, r, types.NewAppError(types.ErrCodeAuthTokenInvalid, "Unauthorized", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
