package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/homedash/internal/tui"
	"github.com/naveenspark/homedash/pkg/domain"
)

func printTasks(ctx context.Context, w io.Writer, s *services, all bool) error {
	f := domain.TaskFilter{}
	if !all {
		f.Owner = s.guard.User().ID
	}

	var (
		tasks []domain.Task
		users []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.List(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	writeTasks(w, tasks, users, domain.Today())
	return nil
}

// writeTasks prints one line per task: date, due state, title and owners.
func writeTasks(w io.Writer, tasks []domain.Task, users []domain.User, today domain.Date) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No open tasks.")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  %-10s %s", t.TargetDate, taskState(t, today), t.Title)
		if names := domain.Usernames(users, t.Owner); len(names) > 0 {
			line += " (" + strings.Join(names, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func taskState(t domain.Task, today domain.Date) string {
	d := t.DaysUntil(today)
	switch {
	case t.Done:
		return "done"
	case t.Overdue(today):
		return fmt.Sprintf("overdue %dd", -d)
	case d == 0:
		return "today"
	case d == 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %dd", d)
}

func printShopping(ctx context.Context, w io.Writer, s *services) error {
	var (
		items                  []domain.ShoppingItem
		ingredients, locations []domain.DictionaryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ingredients, err = s.shopping.Ingredients().Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = s.shopping.Locations().Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.shopping.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "The shopping list is empty.")
		return nil
	}
	fmt.Fprint(w, tui.FormatShoppingList(items, ingredients, locations))
	return nil
}
