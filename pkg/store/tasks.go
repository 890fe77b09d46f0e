package store

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/naveenspark/homedash/pkg/domain"
)

// TaskStore lists and mutates tasks.
type TaskStore struct {
	api API

	mu       sync.RWMutex
	filter   domain.TaskFilter
	snapshot []domain.Task
}

// NewTaskStore creates a task store.
func NewTaskStore(api API) *TaskStore {
	return &TaskStore{api: api}
}

// List fetches tasks matching f, ordered by target date. The filter is kept
// and reused by the refetch after each mutation.
func (s *TaskStore) List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.fetch(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("store.ListTasks: %w", err)
	}
	s.mu.Lock()
	s.filter = f
	s.snapshot = tasks
	s.mu.Unlock()
	return append([]domain.Task(nil), tasks...), nil
}

// Snapshot returns the collection from the last successful List.
func (s *TaskStore) Snapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Task(nil), s.snapshot...)
}

func (s *TaskStore) fetch(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	path := "/tasks?showDone=" + strconv.FormatBool(f.IncludeDone)
	if f.Owner != "" {
		path = "/tasks/user/" + escape(f.Owner)
	}
	var raw []domain.Task
	if err := s.api.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	if err := validateAll(raw); err != nil {
		return nil, err
	}
	return f.Apply(raw), nil
}

func (s *TaskStore) refresh(ctx context.Context) error {
	s.mu.RLock()
	f := s.filter
	s.mu.RUnlock()
	_, err := s.List(ctx, f)
	return err
}

// Create validates d and creates the task.
func (s *TaskStore) Create(ctx context.Context, d domain.TaskDraft) (domain.Task, error) {
	if err := d.Validate(); err != nil {
		return domain.Task{}, err
	}
	var created domain.Task
	if err := s.api.Do(ctx, http.MethodPut, "/task", d, &created); err != nil {
		return domain.Task{}, fmt.Errorf("store.CreateTask: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return created, fmt.Errorf("store.CreateTask: refresh: %w", err)
	}
	return created, nil
}

// Update applies a partial change to the task.
func (s *TaskStore) Update(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	if err := requireID(id); err != nil {
		return domain.Task{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.Task{}, err
	}
	var updated domain.Task
	if err := s.api.Do(ctx, http.MethodPatch, "/task/"+escape(id), p, &updated); err != nil {
		return domain.Task{}, fmt.Errorf("store.UpdateTask: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return updated, fmt.Errorf("store.UpdateTask: refresh: %w", err)
	}
	return updated, nil
}

// MarkDone completes the task.
func (s *TaskStore) MarkDone(ctx context.Context, id string) (domain.Task, error) {
	done := true
	return s.Update(ctx, id, domain.TaskPatch{Done: &done})
}

// Snooze moves the task's target date forward by days from its current
// target date, whatever today is.
func (s *TaskStore) Snooze(ctx context.Context, id string, days int) (domain.Task, error) {
	if err := requireID(id); err != nil {
		return domain.Task{}, err
	}
	if days <= 0 {
		return domain.Task{}, &domain.ValidationError{Field: "days", Reason: "must be a positive number of days"}
	}
	current, err := s.fetch(ctx, domain.TaskFilter{IncludeDone: true})
	if err != nil {
		return domain.Task{}, fmt.Errorf("store.SnoozeTask: %w", err)
	}
	t, ok := domain.FindTask(current, id)
	if !ok {
		return domain.Task{}, fmt.Errorf("store.SnoozeTask: task %s: %w", id, ErrNotFound)
	}
	next := t.TargetDate.AddDays(days)
	return s.Update(ctx, id, domain.TaskPatch{TargetDate: &next})
}

// Remove deletes the task.
func (s *TaskStore) Remove(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.api.Do(ctx, http.MethodDelete, "/task/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("store.RemoveTask: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("store.RemoveTask: refresh: %w", err)
	}
	return nil
}
