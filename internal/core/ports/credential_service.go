package ports

import (
	"context"

	"github.com/passop/passop-api/internal/core/domain"
)

// AddCredentialInput carries the fields of a new credential.
type AddCredentialInput struct {
	OwnerID  string
	Site     string
	Username string
	Password string
}

// CredentialService defines use-case operations for stored credentials.
type CredentialService interface {
	Add(ctx context.Context, input AddCredentialInput) (*domain.Credential, error)
	List(ctx context.Context, ownerID string) ([]*domain.Credential, error)
	// Delete reports whether a record was removed; a miss is not an error.
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}
