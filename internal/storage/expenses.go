package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
)

// ListExpenses returns all of the user's expenses, newest first, with the
// category name joined in when one is set.
func (s *Store) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	var expenses []core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT e.id, e.user_id, e.occurred_at, e.amount_cents,
			       COALESCE(e.description, ''), COALESCE(e.category_id, 0), COALESCE(c.name, '')
			FROM expenses e
			LEFT JOIN categories c ON e.category_id = c.id
			WHERE e.user_id = ?
			ORDER BY e.occurred_at DESC, e.id DESC`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("query expenses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanExpense(rows)
			if err != nil {
				return err
			}
			expenses = append(expenses, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// GetExpense returns a single expense scoped to the user. Another user's
// expense is indistinguishable from a missing one: both are ErrNotFound.
func (s *Store) GetExpense(ctx context.Context, userID, expenseID int64) (core.Expense, error) {
	var expense core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT e.id, e.user_id, e.occurred_at, e.amount_cents,
			       COALESCE(e.description, ''), COALESCE(e.category_id, 0), COALESCE(c.name, '')
			FROM expenses e
			LEFT JOIN categories c ON e.category_id = c.id
			WHERE e.user_id = ? AND e.id = ?`,
			userID, expenseID,
		)
		e, err := scanExpense(row)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// CreateExpense inserts an expense for the user and returns the new id.
// Empty description and zero category id are stored as NULL.
func (s *Store) CreateExpense(ctx context.Context, userID int64, e core.Expense) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (user_id, category_id, occurred_at, amount_cents, description)
			VALUES (?, ?, ?, ?, ?)`,
			userID, nullableID(e.CategoryID), formatTime(e.OccurredAt), e.Amount.Cents, nullableText(e.Description),
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
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

	slog.InfoContext(ctx, "Expense created",
		"expense_id", id,
		"user_id", userID,
		"amount_cents", e.Amount.Cents,
		"component", "storage",
		"operation", "create")

	return id, nil
}

// UpdateExpense updates an expense identified by (user id, expense id).
// Returns ErrNotFound when no row matches, so a stale edit form or a forged
// id surfaces as a visible 404 instead of a silent no-op.
func (s *Store) UpdateExpense(ctx context.Context, userID, expenseID int64, e core.Expense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE expenses
			SET category_id = ?, occurred_at = ?, amount_cents = ?, description = ?
			WHERE user_id = ? AND id = ?`,
			nullableID(e.CategoryID), formatTime(e.OccurredAt), e.Amount.Cents, nullableText(e.Description),
			userID, expenseID,
		)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// DeleteExpense deletes by (user id, expense id), with the same ErrNotFound
// contract as UpdateExpense.
func (s *Store) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, expenseID)
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// ListCategories returns all categories ordered alphabetically by name.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	var categories []core.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
		if err != nil {
			return fmt.Errorf("query categories: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c core.Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return fmt.Errorf("scan category: %w", err)
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryExists reports whether a category with the given id exists.
func (s *Store) CategoryExists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, categoryID)
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("scan category existence: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		occurredAt string
		cents      int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &occurredAt, &cents, &e.Description, &e.CategoryID, &e.CategoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	t, err := parseTime(occurredAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.OccurredAt = t
	e.Amount = core.Money{Cents: cents}
	return e, nil
}
