package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/lexcms/internal/auth"
)

func TestAuthMiddleware(t *testing.T) {
	verifier := auth.StaticVerifier{Token: "s3cret", UserID: "editor@firm"}

	var seenUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(verifier)(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer s3cret", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seenUser = ""
			req := httptest.NewRequest(http.MethodPost, "/api/search-replace", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && seenUser != "editor@firm" {
				t.Fatalf("acting user not propagated, got %q", seenUser)
			}
			if tc.status == http.StatusUnauthorized && seenUser != "" {
				t.Fatal("handler must not run for rejected requests")
			}
		})
	}
}
