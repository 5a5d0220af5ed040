package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rpattn/lexcms/internal/auth"
)

// AuthMiddleware rejects requests without a valid bearer credential before
// any handler logic runs, and stores the acting user in the request context.
func AuthMiddleware(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			credential, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(credential) == "" {
				writeAuthError(w, "missing bearer credential")
				return
			}

			userID, err := verifier.Verify(r.Context(), strings.TrimSpace(credential))
			if err != nil {
				writeAuthError(w, "invalid bearer credential")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(r.Context(), userID)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
