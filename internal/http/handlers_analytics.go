package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"spendlog/internal/core"
)

type analyticsRow struct {
	Period  string
	Count   int64
	Total   string
	Average string
}

type analyticsView struct {
	Title    string
	Flash    string
	Errors   []string
	Grouping string
	DateFrom string
	DateTo   string
	Rows     []analyticsRow
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, user core.User) {
	q := r.URL.Query()

	view := analyticsView{
		Title:    "Analytics",
		Flash:    s.popFlash(w, r),
		Grouping: q.Get("grouping_option"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if view.Grouping == "" {
		view.Grouping = string(core.GroupByMonth)
	}

	grouping, err := core.ParseGrouping(view.Grouping)
	if err != nil {
		view.Errors = append(view.Errors, "Grouping option is not supported. Make sure you selected a value from the list")
	}

	from, ferr := parseFilterDate(view.DateFrom)
	if ferr != nil {
		view.Errors = append(view.Errors, "Wrong format for the From date")
	}
	to, terr := parseFilterDate(view.DateTo)
	if terr != nil {
		view.Errors = append(view.Errors, "Wrong format for the To date")
	}

	if len(view.Errors) > 0 {
		s.renderWithStatus(w, r, http.StatusUnprocessableEntity, "analytics.html", view)
		return
	}

	totals, err := s.store.GroupedTotals(r.Context(), user.ID, grouping, from, to)
	if err != nil {
		if errors.Is(err, core.ErrInvalidGrouping) {
			view.Errors = append(view.Errors, "Grouping option is not supported. Make sure you selected a value from the list")
			s.renderWithStatus(w, r, http.StatusUnprocessableEntity, "analytics.html", view)
			return
		}
		slog.ErrorContext(r.Context(), "Analytics query failed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	view.Rows = make([]analyticsRow, 0, len(totals))
	for _, t := range totals {
		view.Rows = append(view.Rows, analyticsRow{
			Period:  t.Period.Format("2006-01-02"),
			Count:   t.Count,
			Total:   t.Total.String(),
			Average: t.Average.String(),
		})
	}

	s.render(w, r, "analytics.html", view)
}

// parseFilterDate parses an optional YYYY-MM-DD filter field. Empty means
// no bound.
func parseFilterDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
