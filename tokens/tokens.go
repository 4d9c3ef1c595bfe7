package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired           = errors.New("token expired")
	ErrMalformed         = errors.New("token malformed")
	ErrSignatureMismatch = errors.New("token signature mismatch")
)

// Claims carried by a session token. The shape is the same for local
// and Google logins, so downstream consumers cannot tell them apart.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256-signed session tokens. It holds no
// mutable state; concurrent use is safe.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Service{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token carrying the identity claims plus issued-at and
// expiry timestamps.
func (s *Service) Issue(userID, email, name string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify recomputes the signature and checks expiry. Callers treat
// every failure as unauthorized; the distinct errors exist for logging
// and tests.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignatureMismatch
	default:
		return nil, ErrMalformed
	}
}
