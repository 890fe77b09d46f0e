package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/naveenspark/homedash/pkg/client"
	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/session"
	"github.com/naveenspark/homedash/pkg/store"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// describeErr turns a store error into a one-line status. Session expiry
// returns "" because the app moves to the login view instead.
func describeErr(err error) string {
	if err == nil || errors.Is(err, session.ErrExpired) {
		return ""
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var pf *store.PartialFailureError
	if errors.As(err, &pf) {
		return fmt.Sprintf("added %d of %d items, %d failed", pf.Added(), pf.Total, len(pf.Failed))
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("server error (%d): %s", httpErr.StatusCode, httpErr.Message)
	}
	if client.IsTransport(err) {
		return "network error, try again"
	}
	if errors.Is(err, store.ErrNotFound) {
		return "no longer exists, reload with r"
	}
	return err.Error()
}

// dueLabel renders how far a task's target date is from today.
func dueLabel(t domain.Task, today domain.Date) string {
	if t.Done {
		return doneStyle.Render(t.TargetDate.String())
	}
	d := t.DaysUntil(today)
	switch {
	case t.Overdue(today):
		return overdueStyle.Render(fmt.Sprintf("overdue %dd", -d))
	case d == 0:
		return dueSoonStyle.Render("today")
	case d == 1:
		return dueSoonStyle.Render("tomorrow")
	default:
		return metaStyle.Render(fmt.Sprintf("in %dd", d))
	}
}

// formatQuantity prints 2 as "2" and 0.5 as "0.5".
func formatQuantity(q float64, unit string) string {
	s := strconv.FormatFloat(q, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}

// titles maps dictionary ids to titles.
func titles(entries []domain.DictionaryEntry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.ID] = e.Title
	}
	return m
}

func titleOr(m map[string]string, id string) string {
	if t, ok := m[id]; ok {
		return t
	}
	return id
}

// splitList splits comma-separated input, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
