package auth

import (
	"context"
	"errors"
)

type contextKey string

const userIDKey contextKey = "userID"

// ErrInvalidCredential is returned when a bearer credential cannot be
// resolved to a user.
var ErrInvalidCredential = errors.New("invalid credential")

// Verifier resolves a bearer credential to the acting user's identity.
// Credential issuance and role lookup live outside this service.
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

// ContextWithUserID returns a new context carrying the authenticated user.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user from the context, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value := ctx.Value(userIDKey)
	if value == nil {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// StaticVerifier accepts a single pre-shared admin token. It stands in for
// the external identity service in single-admin deployments.
type StaticVerifier struct {
	Token  string
	UserID string
}

// Verify implements Verifier.
func (v StaticVerifier) Verify(_ context.Context, credential string) (string, error) {
	if v.Token == "" || credential != v.Token {
		return "", ErrInvalidCredential
	}
	userID := v.UserID
	if userID == "" {
		userID = "admin"
	}
	return userID, nil
}
