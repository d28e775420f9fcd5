package middleware

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/harutoki/licensegate/internal/api/apierr"
)

// AdminAuthConfig holds the admin secret. When Hash is set it takes
// precedence and the supplied password is bcrypt-compared; otherwise a
// constant-time equality check against Password is used.
type AdminAuthConfig struct {
	Password string
	Hash     string
}

// AdminAuth creates middleware guarding the admin endpoints with the shared
// admin secret. This is deliberately plain: the admin surface is not part of
// the license-validation threat model.
func AdminAuth(cfg AdminAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := extractPassword(r)
			if supplied == "" || !cfg.check(supplied) {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (c AdminAuthConfig) check(supplied string) bool {
	if c.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(supplied)) == nil
	}
	if c.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Password), []byte(supplied)) == 1
}

// extractPassword pulls the admin secret from the request
func extractPassword(r *http.Request) string {
	if p := r.Header.Get("X-Admin-Password"); p != "" {
		return p
	}
	if _, p, ok := r.BasicAuth(); ok && p != "" {
		return p
	}
	// Legacy form/query parameter used by the original dashboard
	return r.URL.Query().Get("password")
}
