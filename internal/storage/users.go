package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
)

// CreateUser inserts a new user with an already-hashed password and returns
// the new id. Username uniqueness is also enforced case-insensitively by the
// database, closing the race between the validation check and the insert.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
			username, passwordHash,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "User created",
		"user_id", id,
		"username", username,
		"component", "storage",
		"operation", "create")

	return id, nil
}

// GetUserByUsername looks a user up by name, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var user core.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, username, password_hash, created_at
			FROM users
			WHERE LOWER(username) = LOWER(?)`,
			username,
		)
		var createdAt string
		if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrNotFound
			}
			return fmt.Errorf("scan user: %w", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return err
		}
		user.CreatedAt = t
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}

// GetUserID resolves a username to its id, case-insensitively.
func (s *Store) GetUserID(ctx context.Context, username string) (int64, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// UsernameExists reports whether a user with the given name exists,
// ignoring case.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER(?))`,
			username,
		)
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("scan username existence: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Credentials returns the stored password hash for a user.
func (s *Store) Credentials(ctx context.Context, userID int64) (string, error) {
	var hash string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = ?`, userID)
		if err := row.Scan(&hash); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrNotFound
			}
			return fmt.Errorf("scan credentials: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}
