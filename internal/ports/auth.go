package ports

import (
	"context"
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthService checks bearer credentials issued by the auth collaborator.
type AuthService interface {
	// ValidateToken returns the token subject, or ErrUnauthorized.
	ValidateToken(ctx context.Context, token string) (string, error)
}
