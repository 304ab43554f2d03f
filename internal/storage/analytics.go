package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spendlog/internal/core"
)

// periodExpr maps each grouping onto the SQLite expression that truncates
// occurred_at to the start of its period. The map doubles as the allow-list:
// a grouping not present here never reaches the query text.
var periodExpr = map[core.Grouping]string{
	core.GroupByDay:   `date(occurred_at)`,
	core.GroupByWeek:  `date(occurred_at, '-6 days', 'weekday 1')`, // Monday of that week
	core.GroupByMonth: `date(occurred_at, 'start of month')`,
}

// GroupedTotals aggregates count, sum and average of the user's expense
// amounts per period, most recent period first. from and to bound the range
// inclusively when non-nil; to covers its whole day.
func (s *Store) GroupedTotals(ctx context.Context, userID int64, grouping core.Grouping, from, to *time.Time) ([]core.PeriodTotals, error) {
	expr, ok := periodExpr[grouping]
	if !ok {
		return nil, fmt.Errorf("grouped totals: %w: %q", core.ErrInvalidGrouping, grouping)
	}

	query := `
		SELECT ` + expr + ` AS period,
		       COUNT(*),
		       SUM(amount_cents),
		       CAST(ROUND(AVG(amount_cents)) AS INTEGER)
		FROM expenses
		WHERE user_id = ?`
	args := []any{userID}

	if from != nil {
		query += ` AND occurred_at >= ?`
		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, day.Format(timeLayout))
	}
	if to != nil {
		query += ` AND occurred_at < ?`
		nextDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		args = append(args, nextDay.Format(timeLayout))
	}
	query += `
		GROUP BY period
		ORDER BY period DESC`

	var totals []core.PeriodTotals
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query grouped totals: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				pt       core.PeriodTotals
				period   string
				sum, avg int64
			)
			if err := rows.Scan(&period, &pt.Count, &sum, &avg); err != nil {
				return fmt.Errorf("scan grouped totals: %w", err)
			}
			p, err := time.Parse("2006-01-02", period)
			if err != nil {
				return fmt.Errorf("parse period %q: %w", period, err)
			}
			pt.Period = p
			pt.Total = core.Money{Cents: sum}
			pt.Average = core.Money{Cents: avg}
			totals = append(totals, pt)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}
