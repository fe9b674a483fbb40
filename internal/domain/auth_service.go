package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Vovarama1992/speechflow/internal/ports"
)

type authService struct {
	secret   []byte
	audience string
}

// NewAuthService validates HS256 tokens signed with secret. When audience is
// non-empty the aud claim must contain it.
func NewAuthService(secret, audience string) ports.AuthService {
	return &authService{
		secret:   []byte(secret),
		audience: audience,
	}
}

func (s *authService) ValidateToken(ctx context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ports.ErrUnauthorized, err)
	}
	return claims.Subject, nil
}
