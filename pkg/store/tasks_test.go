package store

import (
	"context"
	"errors"
	"testing"

	"github.com/naveenspark/homedash/internal/fakeapi"
	"github.com/naveenspark/homedash/pkg/domain"
)

func contains(tasks []domain.Task, id string) bool {
	_, ok := domain.FindTask(tasks, id)
	return ok
}

func TestTaskLifecycle(t *testing.T) {
	g, _ := loggedIn(t)
	s := NewTaskStore(g)
	ctx := context.Background()

	created, err := s.Create(ctx, domain.TaskDraft{
		Title:      "Buy milk",
		Owner:      []string{fakeapi.UserAna},
		TargetDate: date("2024-01-01"),
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	mine, err := s.List(ctx, domain.TaskFilter{Owner: fakeapi.UserAna})
	if err != nil {
		t.Fatalf("List(owner) error: %v", err)
	}
	if !contains(mine, created.ID) {
		t.Fatalf("List(owner=u1) = %v, missing %s", mine, created.ID)
	}

	if _, err := s.Snooze(ctx, created.ID, 1); err != nil {
		t.Fatalf("Snooze() error: %v", err)
	}
	got, _ := domain.FindTask(s.Snapshot(), created.ID)
	if got.TargetDate.String() != "2024-01-02" {
		t.Errorf("targetDate after snooze = %s, want 2024-01-02", got.TargetDate)
	}

	if _, err := s.MarkDone(ctx, created.ID); err != nil {
		t.Fatalf("MarkDone() error: %v", err)
	}
	open, err := s.List(ctx, domain.TaskFilter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if contains(open, created.ID) {
		t.Error("done task listed with IncludeDone=false")
	}
	all, err := s.List(ctx, domain.TaskFilter{IncludeDone: true})
	if err != nil {
		t.Fatalf("List(includeDone) error: %v", err)
	}
	if !contains(all, created.ID) {
		t.Error("done task missing with IncludeDone=true")
	}
}

func TestSnoozeMovesFromCurrentTargetDate(t *testing.T) {
	tests := []struct {
		target string
		days   int
		want   string
	}{
		{"2024-01-01", 1, "2024-01-02"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2019-12-30", 3, "2020-01-02"},
		{"2099-06-01", 30, "2099-07-01"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			g, srv := loggedIn(t)
			id := srv.AddTask(domain.Task{Title: "t", Owner: []string{fakeapi.UserAna}, TargetDate: date(tt.target)})
			s := NewTaskStore(g)

			updated, err := s.Snooze(context.Background(), id, tt.days)
			if err != nil {
				t.Fatalf("Snooze() error: %v", err)
			}
			if updated.TargetDate.String() != tt.want {
				t.Errorf("Snooze(%s, %d) = %s, want %s", tt.target, tt.days, updated.TargetDate, tt.want)
			}
		})
	}
}

func TestSnoozeRejectsNonPositiveDays(t *testing.T) {
	g, srv := loggedIn(t)
	id := srv.AddTask(domain.Task{Title: "t", Owner: []string{fakeapi.UserAna}, TargetDate: date("2024-01-01")})
	s := NewTaskStore(g)

	for _, days := range []int{0, -2} {
		if _, err := s.Snooze(context.Background(), id, days); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Snooze(%d) err = %v, want validation error", days, err)
		}
	}
	if n := srv.Calls("PATCH /task/{id}"); n != 0 {
		t.Errorf("PATCH calls = %d, want 0", n)
	}
}

func TestSnoozeUnknownTask(t *testing.T) {
	g, _ := loggedIn(t)
	_, err := NewTaskStore(g).Snooze(context.Background(), "missing", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateTaskValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.TaskDraft
		field string
	}{
		{"empty title", domain.TaskDraft{Owner: []string{"u1"}, TargetDate: date("2024-01-01")}, "title"},
		{"blank title", domain.TaskDraft{Title: "  ", Owner: []string{"u1"}, TargetDate: date("2024-01-01")}, "title"},
		{"no owner", domain.TaskDraft{Title: "x", TargetDate: date("2024-01-01")}, "owner"},
		{"no date", domain.TaskDraft{Title: "x", Owner: []string{"u1"}}, "targetDate"},
	}
	g, srv := loggedIn(t)
	s := NewTaskStore(g)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.draft)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("err = %v, want validation error on %q", err, tt.field)
			}
		})
	}
	if n := srv.Calls("PUT /task"); n != 0 {
		t.Errorf("PUT /task calls = %d, want 0", n)
	}
}

func TestListOrdersByTargetDateStable(t *testing.T) {
	g, srv := loggedIn(t)
	owner := []string{fakeapi.UserAna}
	srv.AddTask(domain.Task{ID: "late", Title: "late", Owner: owner, TargetDate: date("2024-03-01")})
	srv.AddTask(domain.Task{ID: "tie-1", Title: "tie 1", Owner: owner, TargetDate: date("2024-02-01")})
	srv.AddTask(domain.Task{ID: "early", Title: "early", Owner: owner, TargetDate: date("2024-01-01")})
	srv.AddTask(domain.Task{ID: "tie-2", Title: "tie 2", Owner: owner, TargetDate: date("2024-02-01T23:30:00Z")})
	srv.AddTask(domain.Task{ID: "done", Title: "done", Owner: owner, TargetDate: date("2023-01-01"), Done: true})

	tasks, err := NewTaskStore(g).List(context.Background(), domain.TaskFilter{Owner: fakeapi.UserAna})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"early", "tie-1", "tie-2", "late"}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestSequentialPatchesLastWriteWins(t *testing.T) {
	g, srv := loggedIn(t)
	id := srv.AddTask(domain.Task{Title: "first", Owner: []string{fakeapi.UserAna}, TargetDate: date("2024-01-01")})
	s := NewTaskStore(g)
	ctx := context.Background()

	for _, title := range []string{"second", "third"} {
		title := title
		if _, err := s.Update(ctx, id, domain.TaskPatch{Title: &title}); err != nil {
			t.Fatalf("Update(%q) error: %v", title, err)
		}
	}
	tasks, err := s.List(ctx, domain.TaskFilter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	got, _ := domain.FindTask(tasks, id)
	if got.Title != "third" {
		t.Errorf("title = %q, want third", got.Title)
	}
}

func TestMutationRefetchesWithLastFilter(t *testing.T) {
	g, srv := loggedIn(t)
	srv.AddTask(domain.Task{ID: "ben", Title: "ben's", Owner: []string{fakeapi.UserBen}, TargetDate: date("2024-01-01")})
	id := srv.AddTask(domain.Task{Title: "ana's", Owner: []string{fakeapi.UserAna}, TargetDate: date("2024-01-01")})
	s := NewTaskStore(g)
	ctx := context.Background()

	if _, err := s.List(ctx, domain.TaskFilter{Owner: fakeapi.UserAna}); err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if err := s.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if n := len(s.Snapshot()); n != 0 {
		t.Errorf("snapshot after remove has %d tasks, want 0 (owner filter kept)", n)
	}
	if n := srv.Calls("GET /tasks/user/{id}"); n != 2 {
		t.Errorf("owner list calls = %d, want 2", n)
	}
}
