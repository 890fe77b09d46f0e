package domain

import (
	"sort"
	"strings"
)

// Task is a dated to-do owned by one or more household members.
type Task struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Owner       []string `json:"owner"`
	TargetDate  Date     `json:"targetDate"`
	Done        bool     `json:"done"`
}

// dueSoonDays is the window, in days from today, flagged as due soon.
const dueSoonDays = 2

// Validate checks a task decoded from the API.
func (t Task) Validate() error {
	if t.ID == "" {
		return malformed("task", "missing _id")
	}
	if t.TargetDate.IsZero() {
		return malformed("task "+t.ID, "missing targetDate")
	}
	return nil
}

// DaysUntil returns calendar days from today to the target date.
func (t Task) DaysUntil(today Date) int {
	return t.TargetDate.DaysSince(today)
}

// Overdue reports whether the target date is before today.
func (t Task) Overdue(today Date) bool {
	return t.TargetDate.Before(today)
}

// DueSoon reports whether the target date is today or tomorrow.
// It never holds for an overdue task.
func (t Task) DueSoon(today Date) bool {
	d := t.DaysUntil(today)
	return d >= 0 && d < dueSoonDays
}

// OwnedBy reports whether userID is among the task owners.
func (t Task) OwnedBy(userID string) bool {
	for _, o := range t.Owner {
		if o == userID {
			return true
		}
	}
	return false
}

// TaskDraft is the payload for creating a task.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Owner       []string `json:"owner"`
	TargetDate  Date     `json:"targetDate"`
}

// Validate rejects drafts the server would refuse.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title", "is required")
	}
	if len(d.Owner) == 0 {
		return invalid("owner", "at least one owner is required")
	}
	if d.TargetDate.IsZero() {
		return invalid("targetDate", "is required")
	}
	return nil
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Owner       []string `json:"owner,omitempty"`
	TargetDate  *Date    `json:"targetDate,omitempty"`
	Done        *bool    `json:"done,omitempty"`
}

// Validate rejects patches that would break task invariants.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", "cannot be empty")
	}
	if p.Owner != nil && len(p.Owner) == 0 {
		return invalid("owner", "cannot be emptied")
	}
	if p.TargetDate != nil && p.TargetDate.IsZero() {
		return invalid("targetDate", "cannot be cleared")
	}
	return nil
}

// TaskFilter scopes a task listing.
type TaskFilter struct {
	Owner       string // empty means every owner
	IncludeDone bool
}

// Apply drops done tasks unless requested and orders the rest by target date.
// Tasks sharing a date keep their input order.
func (f TaskFilter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Done && !f.IncludeDone {
			continue
		}
		out = append(out, t)
	}
	SortByTargetDate(out)
	return out
}

// SortByTargetDate sorts ascending by target date, stable on ties.
func SortByTargetDate(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].TargetDate.Before(tasks[j].TargetDate)
	})
}

// FindTask returns the task with the given id.
func FindTask(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
