package validate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeChecker implements CategoryChecker and UsernameChecker in memory.
type fakeChecker struct {
	categoryIDs map[int64]bool
	usernames   map[string]bool
}

func (f *fakeChecker) CategoryExists(_ context.Context, id int64) (bool, error) {
	return f.categoryIDs[id], nil
}

func (f *fakeChecker) UsernameExists(_ context.Context, username string) (bool, error) {
	return f.usernames[strings.ToLower(username)], nil
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		categoryIDs: map[int64]bool{1: true, 2: true},
		usernames:   map[string]bool{"admin": true},
	}
}

func TestExpenseErrors_AllValid(t *testing.T) {
	cases := []ExpenseForm{
		{TransactionDate: "2020-06-15", Amount: "12.34", Description: "Groceries run", CategoryID: "1"},
		{TransactionDate: "2020-06-15", TransactionTime: "08:30", Amount: "0", Description: "abc", CategoryID: ""},
		{TransactionDate: "2020-06-15", Amount: "999", Description: strings.Repeat("x", 149), CategoryID: "2"},
	}
	for _, f := range cases {
		errs := ExpenseErrors(context.Background(), f, newFakeChecker())
		assert.Empty(t, errs, "form %+v should be valid", f)
	}
}

func TestTransactionDateTimeErrors(t *testing.T) {
	now := time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		time string
		want string
	}{
		{"missing date", "", "", "Transaction Date is mandatory"},
		{"missing date with time", "", "10:00", "Transaction Date is mandatory"},
		{"bad date format", "15/06/2020", "", "Wrong format for Transaction Date"},
		{"bad time format", "2020-06-15", "8.30", "Wrong format for Transaction Date or Time"},
		{"future date", "2999-01-01", "", "Transaction Date / Time cannot be in the future"},
		{"future time same day", "2020-06-15", "12:01", "Transaction Date / Time cannot be in the future"},
		{"valid date only", "2020-06-15", "", ""},
		{"valid date and time", "2020-06-15", "11:59", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := TransactionDateTimeErrors(tt.date, tt.time, now)
			if tt.want == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, []string{tt.want}, errs)
		})
	}
}

func TestTransactionAmountErrors(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"", "Transaction Amount is mandatory"},
		{"abc", "Transaction Amount must be a number"},
		{"1e3", "Transaction Amount must be a number"},
		{"1,2,3", "Transaction Amount must be a number"},
		{"-5", "Transaction Amount must be positive"},
		{"-0.01", "Transaction Amount must be positive"},
		{"0", ""},
		{"12.34", ""},
		{"12,34", ""},
		{"100", ""},
	}

	for _, tt := range tests {
		errs := TransactionAmountErrors(tt.amount)
		if tt.want == "" {
			assert.Empty(t, errs, "amount %q", tt.amount)
			continue
		}
		assert.Equal(t, []string{tt.want}, errs, "amount %q", tt.amount)
	}
}

func TestDescriptionErrors_BoundaryLengths(t *testing.T) {
	reject := []int{0, 1, 2, 150, 151}
	accept := []int{3, 4, 100, 149}

	for _, n := range reject {
		errs := DescriptionErrors(strings.Repeat("a", n))
		assert.NotEmpty(t, errs, "length %d must be rejected", n)
	}
	for _, n := range accept {
		errs := DescriptionErrors(strings.Repeat("a", n))
		assert.Empty(t, errs, "length %d must be accepted", n)
	}
}

func TestCategoryErrors(t *testing.T) {
	ctx := context.Background()
	checker := newFakeChecker()

	assert.Empty(t, CategoryErrors(ctx, "", checker), "absent category is allowed")
	assert.Empty(t, CategoryErrors(ctx, "1", checker))
	assert.NotEmpty(t, CategoryErrors(ctx, "999", checker), "unknown id rejected")
	assert.NotEmpty(t, CategoryErrors(ctx, "food", checker), "non-integer rejected")
}

func TestExpenseErrors_Accumulate(t *testing.T) {
	// Every field wrong at once: all errors surface in a single pass.
	errs := ExpenseErrors(context.Background(), ExpenseForm{
		TransactionDate: "",
		Amount:          "abc",
		Description:     "x",
		CategoryID:      "999",
	}, newFakeChecker())
	assert.Len(t, errs, 4)
}

func TestUsernameErrors(t *testing.T) {
	ctx := context.Background()
	checker := newFakeChecker()

	tests := []struct {
		username string
		want     string
	}{
		{"", "Username is mandatory"},
		{"ab", "Username must be between 3 and 20 characters"},
		{strings.Repeat("a", 21), "Username must be between 3 and 20 characters"},
		{"admin", "Username is already taken"},
		{"ADMIN", "Username is already taken"}, // collision is case-insensitive
		{"newcomer", ""},
	}

	for _, tt := range tests {
		errs := UsernameErrors(ctx, tt.username, checker)
		if tt.want == "" {
			assert.Empty(t, errs, "username %q", tt.username)
			continue
		}
		assert.Equal(t, []string{tt.want}, errs, "username %q", tt.username)
	}
}

func TestPasswordErrors(t *testing.T) {
	assert.Equal(t, []string{"Password is mandatory"}, PasswordErrors(""))
	assert.NotEmpty(t, PasswordErrors("abcde"), "no uppercase letter")
	assert.NotEmpty(t, PasswordErrors("ABCDE"), "no lowercase letter")
	assert.NotEmpty(t, PasswordErrors("Ab1"), "too short")
	assert.Empty(t, PasswordErrors("Abcde"))
	assert.Empty(t, PasswordErrors("abcdE"), "either ordering of cases is fine")
}

func TestSignUpErrors_Accumulate(t *testing.T) {
	errs := SignUpErrors(context.Background(), "ab", "abc", newFakeChecker())
	assert.Len(t, errs, 3, "short username, short password, missing case mix")
}
