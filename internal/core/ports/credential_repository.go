package ports

import (
	"context"

	"github.com/passop/passop-api/internal/core/domain"
)

// CredentialRepository defines persistence operations for credentials.
// Every read and delete is scoped by ownerID. Implementations return
// domain.ErrInvalidID when ownerID is not a valid store identifier.
type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) (*domain.Credential, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error)
	// DeleteByOwner removes the credential matching both id and ownerID and
	// reports whether a document was removed. A malformed id matches nothing.
	DeleteByOwner(ctx context.Context, ownerID, id string) (bool, error)
}
