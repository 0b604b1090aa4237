package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/skinscope/internal/common"
)

// SessionRecord is the persisted form of a signed-in session.
type SessionRecord struct {
	ExpiresAt    time.Time
	Provider     string
	UserID       string
	Email        string
	Token        string
	RefreshToken string
}

// SaveSession replaces the stored session for the record's provider.
func (s *SQLiteStorage) SaveSession(ctx context.Context, record *SessionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSessionRecord(record); err != nil {
		return err
	}
	return s.saveSessionTx(ctx, s.db, record)
}

func (s *SQLiteStorage) saveSessionTx(ctx context.Context, q queryable, record *SessionRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO current_session (provider, user_id, email, token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			token = excluded.token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, record.Provider, record.UserID, record.Email, record.Token, record.RefreshToken, record.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session for a provider, or common.ErrNotFound.
func (s *SQLiteStorage) LoadSession(ctx context.Context, provider string) (*SessionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(provider, "provider"); err != nil {
		return nil, err
	}

	record := SessionRecord{Provider: provider}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, token, refresh_token, expires_at
		FROM current_session
		WHERE provider = ?
	`, provider).Scan(
		&record.UserID,
		&record.Email,
		&record.Token,
		&record.RefreshToken,
		&record.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &record, nil
}

// ClearSession removes the stored session for a provider. Clearing an absent session is not an error.
func (s *SQLiteStorage) ClearSession(ctx context.Context, provider string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(provider, "provider"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM current_session WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
