package http

import (
	"net/http"
	"strings"

	"github.com/jvilaplana/cartera/internal/auth"
)

// Authenticate requires a Bearer token whose subject matches the resolved
// session owner. Requests before a session is opened get 401.
func Authenticate(gate *auth.Gate, verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			owner, err := gate.UserID()
			if err != nil || owner != subject {
				http.Error(w, "no session for this token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
