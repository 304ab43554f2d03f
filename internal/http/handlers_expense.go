package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/validate"
)

type expenseRow struct {
	ID          int64
	OccurredAt  string
	Amount      string
	Description string
	Category    string
}

type expenseListView struct {
	Title    string
	Flash    string
	Expenses []expenseRow
}

type expenseFormView struct {
	Title      string
	Flash      string
	Errors     []string
	Action     string
	Submit     string
	Form       validate.ExpenseForm
	Categories []core.Category
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request, user core.User) {
	expenses, err := s.store.ListExpenses(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense listing failed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]expenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			ID:          e.ID,
			OccurredAt:  formatOccurredAt(e.OccurredAt),
			Amount:      e.Amount.String(),
			Description: e.Description,
			Category:    e.CategoryName,
		})
	}

	s.render(w, r, "expense_list.html", expenseListView{
		Title:    "Expenses",
		Flash:    s.popFlash(w, r),
		Expenses: rows,
	})
}

func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request, user core.User) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category listing failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "expense_form.html", expenseFormView{
		Title:  "New Expense",
		Flash:  s.popFlash(w, r),
		Action: "/expenses",
		Submit: "Create",
		Form: validate.ExpenseForm{
			TransactionDate: time.Now().Format("2006-01-02"),
		},
		Categories: categories,
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	form, ok := s.parseExpenseForm(w, r)
	if !ok {
		return
	}

	if errs := validate.ExpenseErrors(r.Context(), form, s.store); len(errs) > 0 {
		s.renderExpenseFormErrors(w, r, "/expenses", "Create", "New Expense", form, errs)
		return
	}

	expense, err := expenseFromForm(form)
	if err != nil {
		slog.ErrorContext(r.Context(), "Validated form failed to convert", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	id, err := s.store.CreateExpense(r.Context(), user.ID, expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense creation failed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense created", "expense_id", id, "user_id", user.ID)

	s.setFlash(w, "Expense recorded")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request, user core.User) {
	expenseID, ok := pathID(w, r)
	if !ok {
		return
	}

	expense, err := s.store.GetExpense(r.Context(), user.ID, expenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Expense lookup failed", "error", err, "expense_id", expenseID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category listing failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	form := validate.ExpenseForm{
		TransactionDate: expense.OccurredAt.Format("2006-01-02"),
		Amount:          expense.Amount.String(),
		Description:     expense.Description,
	}
	// Midnight means the time field was left blank on entry.
	if h, m, sec := expense.OccurredAt.Clock(); h != 0 || m != 0 || sec != 0 {
		form.TransactionTime = expense.OccurredAt.Format("15:04")
	}
	if expense.CategoryID != 0 {
		form.CategoryID = strconv.FormatInt(expense.CategoryID, 10)
	}

	s.render(w, r, "expense_form.html", expenseFormView{
		Title:      "Edit Expense",
		Flash:      s.popFlash(w, r),
		Action:     fmt.Sprintf("/expenses/%d/edit", expense.ID),
		Submit:     "Save",
		Form:       form,
		Categories: categories,
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	expenseID, ok := pathID(w, r)
	if !ok {
		return
	}

	form, ok := s.parseExpenseForm(w, r)
	if !ok {
		return
	}

	action := fmt.Sprintf("/expenses/%d/edit", expenseID)
	if errs := validate.ExpenseErrors(r.Context(), form, s.store); len(errs) > 0 {
		s.renderExpenseFormErrors(w, r, action, "Save", "Edit Expense", form, errs)
		return
	}

	expense, err := expenseFromForm(form)
	if err != nil {
		slog.ErrorContext(r.Context(), "Validated form failed to convert", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.store.UpdateExpense(r.Context(), user.ID, expenseID, expense); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Expense update failed", "error", err, "expense_id", expenseID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense updated", "expense_id", expenseID, "user_id", user.ID)

	s.setFlash(w, "Expense updated")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	expenseID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteExpense(r.Context(), user.ID, expenseID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Expense deletion failed", "error", err, "expense_id", expenseID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted", "expense_id", expenseID, "user_id", user.ID)

	s.setFlash(w, "Expense deleted")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) parseExpenseForm(w http.ResponseWriter, r *http.Request) (validate.ExpenseForm, bool) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "path", r.URL.Path)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return validate.ExpenseForm{}, false
	}
	return validate.ExpenseForm{
		TransactionDate: sanitizeInput(r.Form.Get("transaction_date")),
		TransactionTime: sanitizeInput(r.Form.Get("transaction_time")),
		Amount:          sanitizeInput(r.Form.Get("amount_usd")),
		Description:     sanitizeInput(r.Form.Get("description")),
		CategoryID:      sanitizeInput(r.Form.Get("category_id")),
	}, true
}

func (s *Server) renderExpenseFormErrors(w http.ResponseWriter, r *http.Request, action, submit, title string, form validate.ExpenseForm, errs []string) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category listing failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.renderWithStatus(w, r, http.StatusUnprocessableEntity, "expense_form.html", expenseFormView{
		Title:      title,
		Errors:     errs,
		Action:     action,
		Submit:     submit,
		Form:       form,
		Categories: categories,
	})
}

// expenseFromForm converts an already validated form into a domain expense.
func expenseFromForm(form validate.ExpenseForm) (core.Expense, error) {
	occurredAt, err := validate.ParseTransactionDateTime(form.TransactionDate, form.TransactionTime)
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	expense := core.Expense{
		OccurredAt:  occurredAt,
		Amount:      core.Money{Cents: cents},
		Description: form.Description,
	}
	if form.CategoryID != "" {
		categoryID, err := strconv.ParseInt(form.CategoryID, 10, 64)
		if err != nil {
			return core.Expense{}, err
		}
		expense.CategoryID = categoryID
	}
	return expense, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// formatOccurredAt renders a timestamp for the list, dropping the time part
// when it is midnight.
func formatOccurredAt(t time.Time) string {
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
