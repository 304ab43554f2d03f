package core

import (
	"errors"
	"strings"
	"time"
)

const (
	GroupByDay   Grouping = "day"
	GroupByWeek  Grouping = "week"
	GroupByMonth Grouping = "month"
)

type (
	// Grouping is the aggregation period for analytics. Only the three
	// declared constants are valid; user input must be parsed through
	// ParseGrouping before it gets anywhere near a query.
	Grouping string

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID   int64
		Name string
	}

	Expense struct {
		ID           int64
		UserID       int64
		OccurredAt   time.Time
		Amount       Money
		Description  string // empty means absent
		CategoryID   int64  // 0 means uncategorized
		CategoryName string // populated on reads via join
	}

	// PeriodTotals is one analytics row: aggregates for a single
	// truncated period.
	PeriodTotals struct {
		Period  time.Time
		Count   int64
		Total   Money
		Average Money
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidGrouping = errors.New("invalid grouping option")
)

// ParseGrouping maps a raw form value onto the closed Grouping enum.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(strings.TrimSpace(strings.ToLower(s))) {
	case GroupByDay:
		return GroupByDay, nil
	case GroupByWeek:
		return GroupByWeek, nil
	case GroupByMonth:
		return GroupByMonth, nil
	}
	return "", ErrInvalidGrouping
}

func (g Grouping) String() string { return string(g) }
