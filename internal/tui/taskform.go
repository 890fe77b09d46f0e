package tui

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
)

type taskField int

const (
	taskFieldTitle taskField = iota
	taskFieldDescription
	taskFieldDate
	taskFieldOwners
	numTaskFields
)

// taskForm edits a task draft. Owners are toggled from the household list.
type taskForm struct {
	mode        domain.FormMode
	title       string
	description string
	date        string
	owners      map[string]bool
	ownerCursor int
	focus       taskField
}

func closedTaskForm() taskForm {
	return taskForm{mode: domain.Viewing{}}
}

func newTaskForm(today domain.Date, owner string) taskForm {
	f := taskForm{
		mode:   domain.Creating{},
		date:   today.String(),
		owners: map[string]bool{},
	}
	if owner != "" {
		f.owners[owner] = true
	}
	return f
}

func editTaskForm(t domain.Task) taskForm {
	f := taskForm{
		mode:        domain.Editing{ID: t.ID},
		title:       t.Title,
		description: t.Description,
		date:        t.TargetDate.String(),
		owners:      map[string]bool{},
	}
	for _, o := range t.Owner {
		f.owners[o] = true
	}
	return f
}

func (f taskForm) open() bool { return f.mode != nil && domain.FormOpen(f.mode) }

// ownerIDs returns the selected owners in household order. Owners not in
// users are kept after them so an edit never drops an unknown owner.
func (f taskForm) ownerIDs(users []domain.User) []string {
	var ids []string
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
		if f.owners[u.ID] {
			ids = append(ids, u.ID)
		}
	}
	var rest []string
	for id, on := range f.owners {
		if on && !known[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// draft parses the form into a draft, validating locally.
func (f taskForm) draft(users []domain.User) (domain.TaskDraft, error) {
	date, err := domain.ParseDate(strings.TrimSpace(f.date))
	if err != nil {
		return domain.TaskDraft{}, &domain.ValidationError{Field: "targetDate", Reason: "must be YYYY-MM-DD"}
	}
	d := domain.TaskDraft{
		Title:       strings.TrimSpace(f.title),
		Description: strings.TrimSpace(f.description),
		Owner:       f.ownerIDs(users),
		TargetDate:  date,
	}
	return d, d.Validate()
}

// patch is the full replacement patch for an edited task.
func (f taskForm) patch(users []domain.User) (domain.TaskPatch, error) {
	d, err := f.draft(users)
	if err != nil {
		return domain.TaskPatch{}, err
	}
	return domain.TaskPatch{
		Title:       &d.Title,
		Description: &d.Description,
		Owner:       d.Owner,
		TargetDate:  &d.TargetDate,
	}, nil
}

// update handles a key while the form is open. submit is true on ctrl+s.
func (f taskForm) update(msg tea.KeyMsg, users []domain.User) (form taskForm, submit bool) {
	switch msg.String() {
	case "esc":
		return closedTaskForm(), false
	case "ctrl+s":
		return f, true
	case "tab", "down", "enter":
		f.focus = (f.focus + 1) % numTaskFields
		return f, false
	case "shift+tab", "up":
		f.focus = (f.focus + numTaskFields - 1) % numTaskFields
		return f, false
	}

	switch f.focus {
	case taskFieldTitle:
		f.title = editInput(f.title, msg)
	case taskFieldDescription:
		f.description = editInput(f.description, msg)
	case taskFieldDate:
		f.date = editInput(f.date, msg)
	case taskFieldOwners:
		switch msg.String() {
		case "left", "h":
			if f.ownerCursor > 0 {
				f.ownerCursor--
			}
		case "right", "l":
			if f.ownerCursor < len(users)-1 {
				f.ownerCursor++
			}
		case " ", "x":
			if f.ownerCursor < len(users) {
				id := users[f.ownerCursor].ID
				f.owners[id] = !f.owners[id]
			}
		}
	}
	return f, false
}

func (f taskForm) View(users []domain.User) string {
	var b strings.Builder
	heading := "New task"
	if _, ok := domain.EditingID(f.mode); ok {
		heading = "Edit task"
	}
	b.WriteString("  " + sectionHeaderStyle.Render(heading) + "\n\n")
	b.WriteString(renderInput("title", f.title, "what needs doing", f.focus == taskFieldTitle) + "\n")
	b.WriteString(renderInput("notes", f.description, "optional", f.focus == taskFieldDescription) + "\n")
	b.WriteString(renderInput("date", f.date, "YYYY-MM-DD", f.focus == taskFieldDate) + "\n")

	prefix := "  "
	if f.focus == taskFieldOwners {
		prefix = inputPromptStyle.Render("> ")
	}
	var chips []string
	for i, u := range users {
		box := "[ ]"
		if f.owners[u.ID] {
			box = "[x]"
		}
		chip := box + " " + u.Username
		switch {
		case f.focus == taskFieldOwners && i == f.ownerCursor:
			chip = selectedStyle.Render(chip)
		case f.owners[u.ID]:
			chip = accentStyle.Render(chip)
		default:
			chip = dimStyle.Render(chip)
		}
		chips = append(chips, chip)
	}
	if len(chips) == 0 {
		chips = append(chips, dimStyle.Render("loading household..."))
	}
	b.WriteString(prefix + metaStyle.Render("owners:") + " " + strings.Join(chips, "  ") + "\n")
	return b.String()
}

func (f taskForm) helpBar() string {
	if f.focus == taskFieldOwners {
		return helpBar("h/l", "move", "space", "toggle", "ctrl+s", "save", "esc", "cancel")
	}
	return helpBar("tab", "next field", "ctrl+s", "save", "esc", "cancel")
}
