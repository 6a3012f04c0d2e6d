package ports

import (
	"context"

	"github.com/passop/passop-api/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
