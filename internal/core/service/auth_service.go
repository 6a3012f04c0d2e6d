package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/passop/passop-api/internal/core/domain"
	"github.com/passop/passop-api/internal/core/ports"
)

// dummyHash is compared against when the email is unknown so both login
// failure paths spend the same bcrypt time.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("passop-login-timing-guard"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("service: generate dummy hash: %v", err))
	}
	return h
})

// AuthService implements registration and login.
type AuthService struct {
	repo     ports.AuthRepository
	tokens   ports.TokenIssuer
	throttle ports.LoginThrottle
	logger   zerolog.Logger
}

// NewAuthService wires the auth use cases. throttle may be nil, in which case
// failed logins are not counted.
func NewAuthService(repo ports.AuthRepository, tokens ports.TokenIssuer, throttle ports.LoginThrottle, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, throttle: throttle, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	// Uniqueness is enforced by the store's unique index, not by a lookup here.
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login verifies the email/password pair and returns a signed session token.
// An unknown email and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	if s.locked(ctx, email) {
		return "", domain.ErrTooManyAttempts
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		s.recordFailure(ctx, email)
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, email)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// locked fails open: a throttle outage must not block every login.
func (s *AuthService) locked(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return false
	}
	locked, err := s.throttle.Locked(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		return false
	}
	return locked
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	s.logger.Debug().Msg("login failed")
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
