package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/passop/passop-api/internal/core/domain"
	"github.com/passop/passop-api/internal/core/ports"
)

type CredentialService struct {
	repo   ports.CredentialRepository
	logger zerolog.Logger
}

func NewCredentialService(repo ports.CredentialRepository, logger zerolog.Logger) *CredentialService {
	return &CredentialService{repo: repo, logger: logger}
}

// Add stores a credential owned by input.OwnerID. Duplicate sites are allowed.
func (s *CredentialService) Add(ctx context.Context, input ports.AddCredentialInput) (*domain.Credential, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(input.Site) == "" || strings.TrimSpace(input.Username) == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: site, username and password are required", domain.ErrValidation)
	}

	created, err := s.repo.Create(ctx, &domain.Credential{
		OwnerID:   input.OwnerID,
		Site:      strings.TrimSpace(input.Site),
		Username:  strings.TrimSpace(input.Username),
		Password:  input.Password,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return nil, domain.ErrInvalidToken
		}
		s.logger.Error().Err(err).Str("user_id", input.OwnerID).Msg("failed to store credential")
		return nil, err
	}

	s.logger.Info().Str("user_id", input.OwnerID).Str("credential_id", created.ID).Msg("credential stored")
	return created, nil
}

// List returns the caller's credentials. The result is never nil.
func (s *CredentialService) List(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if items == nil {
		items = []*domain.Credential{}
	}
	return items, nil
}

// Delete removes the credential only when it belongs to ownerID. Unknown,
// foreign and malformed ids are silent no-ops.
func (s *CredentialService) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, domain.ErrUnauthenticated
	}

	deleted, err := s.repo.DeleteByOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return false, domain.ErrInvalidToken
		}
		return false, err
	}

	s.logger.Info().
		Str("user_id", ownerID).
		Str("credential_id", id).
		Bool("deleted", deleted).
		Msg("credential delete")
	return deleted, nil
}
