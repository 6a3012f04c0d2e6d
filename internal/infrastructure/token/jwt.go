// Package token issues and verifies the HS256 session tokens handed out at
// login. Tokens are not persisted: validity is the signature plus exp.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/passop/passop-api/internal/core/domain"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Claims carries the user id under "id" alongside the registered iat/exp.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a single server secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for userID that expires after the manager TTL.
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the user id.
// Expired tokens yield domain.ErrTokenExpired; anything else that fails
// yields domain.ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrInvalidToken
	}
	if !tkn.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.UserID, nil
}
