package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/skinscope/internal/common"
)

// Account is a locally registered identity.
type Account struct {
	CreatedAt    time.Time
	ID           string
	Email        string
	PasswordHash string
}

// CreateAccount inserts a new account. Emails are unique without regard to case.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	created := account.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, account.ID, strings.TrimSpace(account.Email), account.PasswordHash, created)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: account %s", common.ErrDuplicateEntry, account.Email)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	account.CreatedAt = created
	return nil
}

// GetAccountByEmail looks an account up by email address.
func (s *SQLiteStorage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	var account Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = ? COLLATE NOCASE
	`, strings.TrimSpace(email)).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// CountAccounts returns the number of registered accounts.
func (s *SQLiteStorage) CountAccounts(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
