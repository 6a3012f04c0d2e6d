package ports

import (
	"context"

	"github.com/passop/passop-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// TokenIssuer signs session tokens bound to a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// TokenVerifier checks a session token and returns the user id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// LoginThrottle counts failed logins per key and locks the key out once a
// limit is reached within a window.
type LoginThrottle interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
