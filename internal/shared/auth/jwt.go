package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfigured = errors.New("auth secret not configured")
)

const issuer = "queuewatch-collector"

type Claims struct {
	jwt.RegisteredClaims
}

type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// SecretValidator accepts either the shared secret verbatim or an HS256 token
// signed with it. The verbatim form keeps older collectors working.
type SecretValidator struct {
	secret []byte
	now    func() time.Time
}

func NewSecretValidator(secret string) *SecretValidator {
	return &SecretValidator{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

func (v *SecretValidator) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(token), v.secret) == 1 {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "static"}}, nil
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// TokenSigner issues short-lived HS256 bearer tokens for the remote write path.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TokenSigner{secret: []byte(strings.TrimSpace(secret)), ttl: ttl, now: time.Now}
}

func (s *TokenSigner) Sign(subject string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNotConfigured
	}
	now := s.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strings.TrimSpace(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var _ TokenValidator = (*SecretValidator)(nil)
