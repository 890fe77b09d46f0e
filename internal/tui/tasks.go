package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

// taskScope distinguishes the home view (my tasks) from the full task list.
type taskScope int

const (
	scopeMine taskScope = iota
	scopeAll
)

// tasksLoadedMsg carries a task listing or the result of a task mutation.
// users is nil when the household was not refetched.
type tasksLoadedMsg struct {
	scope  taskScope
	gen    int
	tasks  []domain.Task
	users  []domain.User
	status string
	err    error
}

// tasksModel lists tasks for one scope and edits them.
type tasksModel struct {
	store    *store.TaskStore
	users    *store.UserStore
	scope    taskScope
	owner    string // session user; scopes the home list and defaults new tasks
	showDone bool

	tasks     []domain.Task
	household []domain.User
	cursor    int
	gen       int
	loading   bool
	status    string
	errMsg    string
	today     domain.Date
	form      taskForm
	height    int
}

func newTasksModel(ts *store.TaskStore, us *store.UserStore, scope taskScope) tasksModel {
	return tasksModel{store: ts, users: us, scope: scope, form: closedTaskForm()}
}

func (m tasksModel) filter() domain.TaskFilter {
	f := domain.TaskFilter{IncludeDone: m.showDone}
	if m.scope == scopeMine {
		f.Owner = m.owner
	}
	return f
}

func (m tasksModel) currentDay() domain.Date {
	if m.today.IsZero() {
		return domain.Today()
	}
	return m.today
}

// reload starts a fresh listing. Results of earlier loads are dropped.
func (m tasksModel) reload() (tasksModel, tea.Cmd) {
	m.gen++
	m.loading = true
	ts, us, scope, gen, f := m.store, m.users, m.scope, m.gen, m.filter()
	return m, func() tea.Msg {
		ctx := context.Background()
		tasks, err := ts.List(ctx, f)
		if err != nil {
			return tasksLoadedMsg{scope: scope, gen: gen, err: err}
		}
		msg := tasksLoadedMsg{scope: scope, gen: gen, tasks: tasks}
		if us != nil {
			// owner names fall back to ids when this fails
			msg.users, _ = us.List(ctx) //nolint:errcheck
		}
		return msg
	}
}

// leave invalidates in-flight loads when the view is hidden.
func (m tasksModel) leave() tasksModel {
	m.gen++
	m.loading = false
	m.form = closedTaskForm()
	return m
}

// mutate runs fn against the store and reports the refetched snapshot.
func (m tasksModel) mutate(status string, fn func(context.Context, *store.TaskStore) error) tea.Cmd {
	ts, scope, gen := m.store, m.scope, m.gen
	return func() tea.Msg {
		if err := fn(context.Background(), ts); err != nil {
			return tasksLoadedMsg{scope: scope, gen: gen, err: err}
		}
		return tasksLoadedMsg{scope: scope, gen: gen, tasks: ts.Snapshot(), status: status}
	}
}

func (m tasksModel) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// editing reports whether keystrokes belong to the form.
func (m tasksModel) editing() bool { return m.form.open() }

func (m tasksModel) Update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.scope != m.scope || msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = describeErr(msg.err)
			m.status = ""
			return m, nil
		}
		m.errMsg = ""
		m.status = msg.status
		m.tasks = msg.tasks
		if msg.users != nil {
			m.household = msg.users
		}
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		if msg.status != "" {
			m.form = closedTaskForm()
		}
		return m, nil

	case tea.KeyMsg:
		if m.form.open() {
			return m.updateForm(msg)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

func (m tasksModel) updateForm(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	form, submit := m.form.update(msg, m.household)
	m.form = form
	if !submit {
		return m, nil
	}
	if id, ok := domain.EditingID(m.form.mode); ok {
		p, err := m.form.patch(m.household)
		if err != nil {
			m.errMsg = describeErr(err)
			return m, nil
		}
		m.errMsg = ""
		return m, m.mutate("task saved", func(ctx context.Context, ts *store.TaskStore) error {
			_, err := ts.Update(ctx, id, p)
			return err
		})
	}
	d, err := m.form.draft(m.household)
	if err != nil {
		m.errMsg = describeErr(err)
		return m, nil
	}
	m.errMsg = ""
	return m, m.mutate("task created", func(ctx context.Context, ts *store.TaskStore) error {
		_, err := ts.Create(ctx, d)
		return err
	})
}

func (m tasksModel) updateNav(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "r":
		return m.reload()
	case "a":
		m.showDone = !m.showDone
		return m.reload()
	case "n":
		m.form = newTaskForm(m.currentDay(), m.owner)
		m.errMsg = ""
		return m, nil
	}

	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch msg.String() {
	case "e", "enter":
		m.form = editTaskForm(t)
		m.errMsg = ""
		return m, nil
	case "d":
		if t.Done {
			return m, nil
		}
		return m, m.mutate(fmt.Sprintf("%q done", t.Title), func(ctx context.Context, ts *store.TaskStore) error {
			_, err := ts.MarkDone(ctx, t.ID)
			return err
		})
	case "s", "S":
		days := 1
		if msg.String() == "S" {
			days = 7
		}
		return m, m.mutate(fmt.Sprintf("%q snoozed %dd", t.Title, days), func(ctx context.Context, ts *store.TaskStore) error {
			_, err := ts.Snooze(ctx, t.ID, days)
			return err
		})
	case "x":
		return m, m.mutate(fmt.Sprintf("%q deleted", t.Title), func(ctx context.Context, ts *store.TaskStore) error {
			return ts.Remove(ctx, t.ID)
		})
	}
	return m, nil
}

func (m tasksModel) View() string {
	if m.form.open() {
		var b strings.Builder
		b.WriteString("\n")
		b.WriteString(m.form.View(m.household))
		if m.errMsg != "" {
			b.WriteString("\n  " + errorStyle.Render(m.errMsg) + "\n")
		}
		return b.String()
	}

	var b strings.Builder
	heading := "My tasks"
	if m.scope == scopeAll {
		heading = "All tasks"
	}
	if m.showDone {
		heading += dimStyle.Render(" (with done)")
	}
	b.WriteString("\n  " + sectionHeaderStyle.Render(heading) + "\n\n")

	switch {
	case m.loading && len(m.tasks) == 0:
		b.WriteString("  " + dimStyle.Render("loading...") + "\n")
	case len(m.tasks) == 0:
		b.WriteString("  " + dimStyle.Render("nothing to do") + "\n")
	}

	today := m.currentDay()
	for i, t := range m.tasks {
		cursor := "  "
		title := normalStyle.Render(truncStr(t.Title, 40))
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			title = selectedStyle.Render(truncStr(t.Title, 40))
		}
		if t.Done {
			title = doneStyle.Render(truncStr(t.Title, 40))
		}
		line := cursor + title + "  " + dueLabel(t, today)
		if m.scope == scopeAll || len(t.Owner) > 1 {
			line += "  " + metaStyle.Render(strings.Join(domain.Usernames(m.household, t.Owner), ", "))
		}
		b.WriteString(line + "\n")
		if i == m.cursor && t.Description != "" {
			b.WriteString("    " + dimStyle.Render(truncStr(t.Description, 70)) + "\n")
		}
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
	} else if m.status != "" {
		b.WriteString("  " + okStyle.Render(m.status) + "\n")
	}
	return truncateToHeight(b.String(), m.height)
}

func (m tasksModel) helpBar() string {
	if m.form.open() {
		return m.form.helpBar()
	}
	return helpBar("j/k", "nav", "d", "done", "s/S", "snooze 1d/7d", "n", "new", "e", "edit", "x", "delete", "a", "show done")
}
