// Package auth links login handles to profiles with bcrypt-hashed
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/storage"
)

var (
	ErrInvalidInput       = errors.New("handle and password must not be empty")
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrUnknownHandle      = errors.New("unknown handle")
	ErrHandleTaken        = storage.ErrHandleTaken
)

// CredentialStore persists credentials.
type CredentialStore interface {
	CreateCredential(ctx context.Context, c storage.Credential) error
	CreateAccount(ctx context.Context, p profile.Profile, c storage.Credential) error
	GetCredential(ctx context.Context, handle string) (storage.Credential, error)
}

type Service struct {
	store CredentialStore
	cost  int
}

func NewService(store CredentialStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost (for testing).
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Authenticate returns the profile id for handle. ErrUnknownHandle means
// the handle has never been registered; a wrong password gives
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, handle, password string) (string, error) {
	handle = normalizeHandle(handle)
	if handle == "" || password == "" {
		return "", ErrInvalidInput
	}

	c, err := s.store.GetCredential(ctx, handle)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUnknownHandle
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return c.ProfileID, nil
}

// ProfileID resolves handle to its profile id without checking a password.
// It serves local management commands run by the machine's owner.
func (s *Service) ProfileID(ctx context.Context, handle string) (string, error) {
	handle = normalizeHandle(handle)
	if handle == "" {
		return "", ErrInvalidInput
	}
	c, err := s.store.GetCredential(ctx, handle)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUnknownHandle
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}
	return c.ProfileID, nil
}

// Register links handle to profileID.
func (s *Service) Register(ctx context.Context, handle, password, profileID string) error {
	c, err := s.credential(handle, password, profileID)
	if err != nil {
		return err
	}
	return s.store.CreateCredential(ctx, c)
}

// CreateAccount stores a freshly onboarded profile together with its login.
// When the handle is taken nothing is stored.
func (s *Service) CreateAccount(ctx context.Context, handle, password string, p profile.Profile) error {
	c, err := s.credential(handle, password, p.ID)
	if err != nil {
		return err
	}
	return s.store.CreateAccount(ctx, p, c)
}

func (s *Service) credential(handle, password, profileID string) (storage.Credential, error) {
	handle = normalizeHandle(handle)
	if handle == "" || password == "" {
		return storage.Credential{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return storage.Credential{}, fmt.Errorf("hashing password: %w", err)
	}
	return storage.Credential{
		Handle:       handle,
		PasswordHash: string(hash),
		ProfileID:    profileID,
	}, nil
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
