// Package validate checks raw form input and returns lists of human-readable
// error messages. An empty list means valid.
//
// Every checker runs even after an earlier one has failed, so one submission
// can surface all of its problems at once. Validation is the primary defense:
// the storage layer only ever sees input that passed here, and a storage
// failure on the happy path is a programming error, not control flow.
package validate

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"spendlog/internal/core"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// caseMix matches a string containing at least one lowercase and one
// uppercase letter, in either order.
var caseMix = regexp.MustCompile(`[a-z].*[A-Z]|[A-Z].*[a-z]`)

// CategoryChecker is the slice of storage the category rule needs.
type CategoryChecker interface {
	CategoryExists(ctx context.Context, categoryID int64) (bool, error)
}

// UsernameChecker is the slice of storage the sign-up rule needs.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// ExpenseForm carries the raw expense form fields, already trimmed.
type ExpenseForm struct {
	TransactionDate string
	TransactionTime string
	Amount          string
	Description     string
	CategoryID      string
}

// ParseTransactionDateTime combines the date and optional time fields into a
// timestamp. The date field is YYYY-MM-DD; the time field, when present, is
// HH:MM appended with a T separator.
func ParseTransactionDateTime(date, timeOfDay string) (time.Time, error) {
	if timeOfDay != "" {
		return time.Parse(dateTimeLayout, date+"T"+timeOfDay)
	}
	return time.Parse(dateLayout, date)
}

// TransactionDateTimeErrors validates the date/time field pair against now.
func TransactionDateTimeErrors(date, timeOfDay string, now time.Time) []string {
	if date == "" {
		return []string{"Transaction Date is mandatory"}
	}

	parsed, err := ParseTransactionDateTime(date, timeOfDay)
	if err != nil {
		if timeOfDay != "" {
			return []string{"Wrong format for Transaction Date or Time"}
		}
		return []string{"Wrong format for Transaction Date"}
	}

	if parsed.After(now) {
		return []string{"Transaction Date / Time cannot be in the future"}
	}

	return nil
}

// TransactionAmountErrors validates the amount field. Zero is allowed.
func TransactionAmountErrors(amount string) []string {
	if amount == "" {
		return []string{"Transaction Amount is mandatory"}
	}

	// Accept the decimal comma here too, so this gate agrees with
	// core.ParseDecimalToCents on what counts as a number.
	f, err := strconv.ParseFloat(strings.Replace(amount, ",", ".", 1), 64)
	if err != nil {
		return []string{"Transaction Amount must be a number"}
	}
	if f < 0 {
		return []string{"Transaction Amount must be positive"}
	}
	// Scientific notation and similar forms parse as floats but are not
	// decimal money strings.
	if _, err := core.ParseDecimalToCents(amount); err != nil {
		return []string{"Transaction Amount must be a number"}
	}

	return nil
}

// DescriptionErrors validates the description field. The bounds are
// exclusive: lengths 2 and 150 are rejected, 3 through 149 accepted.
func DescriptionErrors(description string) []string {
	if description == "" {
		return []string{"Transaction Description is mandatory"}
	}

	if n := utf8.RuneCountInString(description); !(2 < n && n < 150) {
		return []string{"Transaction Description must be between 2 and 150 characters"}
	}

	return nil
}

// CategoryErrors validates the optional category field against the set of
// known category ids. An absent category is always valid.
func CategoryErrors(ctx context.Context, categoryID string, categories CategoryChecker) []string {
	const unsupported = "Category value is not supported. Make sure you selected a value from the list"

	if categoryID == "" {
		return nil
	}

	id, err := strconv.ParseInt(categoryID, 10, 64)
	if err != nil {
		return []string{unsupported}
	}

	exists, err := categories.CategoryExists(ctx, id)
	if err != nil || !exists {
		return []string{unsupported}
	}

	return nil
}

// ExpenseErrors runs every expense field check and accumulates the results.
func ExpenseErrors(ctx context.Context, f ExpenseForm, categories CategoryChecker) []string {
	var errs []string
	errs = append(errs, TransactionDateTimeErrors(f.TransactionDate, f.TransactionTime, time.Now())...)
	errs = append(errs, TransactionAmountErrors(f.Amount)...)
	errs = append(errs, DescriptionErrors(f.Description)...)
	errs = append(errs, CategoryErrors(ctx, f.CategoryID, categories)...)
	return errs
}

// UsernameErrors validates a sign-up username, including the
// case-insensitive collision check against existing users.
func UsernameErrors(ctx context.Context, username string, users UsernameChecker) []string {
	if username == "" {
		return []string{"Username is mandatory"}
	}

	if n := utf8.RuneCountInString(username); n < 3 || n > 20 {
		return []string{"Username must be between 3 and 20 characters"}
	}

	exists, err := users.UsernameExists(ctx, username)
	if err != nil {
		return []string{"Could not verify username availability. Please try again"}
	}
	if exists {
		return []string{"Username is already taken"}
	}

	return nil
}

// PasswordErrors validates a sign-up password.
func PasswordErrors(password string) []string {
	var errs []string

	if password == "" {
		return []string{"Password is mandatory"}
	}

	if utf8.RuneCountInString(password) < 5 {
		errs = append(errs, "Password must be at least 5 characters")
	}
	if !caseMix.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase and one lowercase letter")
	}

	return errs
}

// SignUpErrors runs both sign-up field checks and accumulates the results.
func SignUpErrors(ctx context.Context, username, password string, users UsernameChecker) []string {
	var errs []string
	errs = append(errs, UsernameErrors(ctx, strings.TrimSpace(username), users)...)
	errs = append(errs, PasswordErrors(password)...)
	return errs
}
