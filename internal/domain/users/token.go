package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"adopt-meow/internal/ports/auth"
)

var ErrInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// TokenService emite y verifica los bearer tokens (HS256).
// Implementa auth.AuthVerifier, así el middleware lo consume directo.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		signingKey: []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *TokenService) Issue(u User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserType: string(u.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *TokenService) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID:   claims.Subject,
		UserType: auth.UserType(claims.UserType),
	}, nil
}
