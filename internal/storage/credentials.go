package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/fitai/internal/profile"
)

// CreateCredential registers a new handle. Returns ErrHandleTaken when the
// handle exists.
func (s *Store) CreateCredential(ctx context.Context, c Credential) error {
	return s.inTx(func(tx *sql.Tx) error {
		return insertCredential(ctx, tx, c)
	})
}

// CreateAccount stores a new profile and the credential that points at it in
// one transaction. A taken handle leaves neither behind.
func (s *Store) CreateAccount(ctx context.Context, p profile.Profile, c Credential) error {
	if p.ID == "" {
		return errors.New("creating account: empty profile id")
	}
	if c.ProfileID != p.ID {
		return fmt.Errorf("creating account: credential points at %q, profile is %q", c.ProfileID, p.ID)
	}
	return s.inTx(func(tx *sql.Tx) error {
		if err := insertCredential(ctx, tx, c); err != nil {
			return err
		}
		return saveProfile(ctx, tx, p)
	})
}

func insertCredential(ctx context.Context, tx *sql.Tx, c Credential) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE handle = ?`, c.Handle).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrHandleTaken
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (handle, password_hash, profile_id, created_at) VALUES (?, ?, ?, ?)`,
		c.Handle, c.PasswordHash, c.ProfileID, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// GetCredential returns the credential for handle or ErrNotFound.
func (s *Store) GetCredential(ctx context.Context, handle string) (Credential, error) {
	var c Credential
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT handle, password_hash, profile_id, created_at FROM credentials WHERE handle = ?`, handle,
	).Scan(&c.Handle, &c.PasswordHash, &c.ProfileID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, err
	}
	if c.CreatedAt, err = parseTime("credentials.created_at", createdAt); err != nil {
		return Credential{}, err
	}
	return c, nil
}
