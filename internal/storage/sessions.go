package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spendlog/internal/core"
)

// CreateSession stores a session token for a user.
func (s *Store) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
			token, userID, formatTime(expiresAt),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// SessionUser resolves a token to its user. Expired or unknown tokens
// return ErrNotFound.
func (s *Store) SessionUser(ctx context.Context, token string) (core.User, error) {
	var user core.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT u.id, u.username, u.password_hash, u.created_at
			FROM sessions s
			JOIN users u ON s.user_id = u.id
			WHERE s.token = ? AND s.expires_at > ?`,
			token, formatTime(time.Now()),
		)
		var createdAt string
		if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrNotFound
			}
			return fmt.Errorf("scan session user: %w", err)
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

// DeleteSession removes a session by token. Unknown tokens are fine.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// DeleteUserSessions removes every session a user holds. Sign-in calls this
// before issuing a fresh token so prior sessions cannot be replayed.
func (s *Store) DeleteUserSessions(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		return nil
	})
}

// CleanExpiredSessions removes expired sessions and returns how many.
func (s *Store) CleanExpiredSessions(ctx context.Context) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
