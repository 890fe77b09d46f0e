package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

type adminLoadedMsg struct {
	gen     int
	kind    store.Collection
	entries []domain.DictionaryEntry
	status  string
	err     error
}

// adminModel manages the ingredient and location dictionaries.
type adminModel struct {
	ingredients *store.Dictionary
	locations   *store.Dictionary

	kind    store.Collection
	entries []domain.DictionaryEntry
	cursor  int
	gen     int
	loading bool
	adding  bool
	input   string
	status  string
	errMsg  string
	height  int
}

func newAdminModel(s *store.ShoppingStore) adminModel {
	m := adminModel{kind: store.Ingredients}
	if s != nil {
		m.ingredients = s.Ingredients()
		m.locations = s.Locations()
	}
	return m
}

func (m adminModel) dict() *store.Dictionary {
	if m.kind == store.Locations {
		return m.locations
	}
	return m.ingredients
}

func (m adminModel) reload() (adminModel, tea.Cmd) {
	m.gen++
	m.loading = true
	d, gen, kind := m.dict(), m.gen, m.kind
	return m, func() tea.Msg {
		entries, err := d.Load(context.Background())
		return adminLoadedMsg{gen: gen, kind: kind, entries: entries, err: err}
	}
}

func (m adminModel) leave() adminModel {
	m.gen++
	m.loading = false
	m.adding = false
	m.input = ""
	return m
}

func (m adminModel) mutate(status string, fn func(context.Context, *store.Dictionary) error) tea.Cmd {
	d, gen, kind := m.dict(), m.gen, m.kind
	return func() tea.Msg {
		if err := fn(context.Background(), d); err != nil {
			return adminLoadedMsg{gen: gen, kind: kind, err: err}
		}
		return adminLoadedMsg{gen: gen, kind: kind, entries: d.Options(), status: status}
	}
}

func (m adminModel) editing() bool { return m.adding }

func (m adminModel) label() string {
	if m.kind == store.Locations {
		return "Locations"
	}
	return "Ingredients"
}

func (m adminModel) Update(msg tea.Msg) (adminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case adminLoadedMsg:
		if msg.gen != m.gen || msg.kind != m.kind {
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
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			switch msg.String() {
			case "esc":
				m.adding = false
				m.input = ""
			case "enter", "ctrl+s":
				title := strings.TrimSpace(m.input)
				if title == "" {
					m.errMsg = "title is required"
					return m, nil
				}
				m.adding = false
				m.input = ""
				return m, m.mutate(domain.CapitalizeTitle(title)+" added", func(ctx context.Context, d *store.Dictionary) error {
					_, err := d.Create(ctx, title)
					return err
				})
			default:
				m.input = editInput(m.input, msg)
			}
			return m, nil
		}

		switch msg.String() {
		case "tab":
			if m.kind == store.Ingredients {
				m.kind = store.Locations
			} else {
				m.kind = store.Ingredients
			}
			m.cursor = 0
			m.entries = nil
			m.status, m.errMsg = "", ""
			return m.reload()
		case "j", "down":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			return m.reload()
		case "n":
			m.adding = true
			m.errMsg = ""
		case "x":
			if m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				return m, m.mutate(e.Title+" deleted", func(ctx context.Context, d *store.Dictionary) error {
					return d.Delete(ctx, e.ID)
				})
			}
		}
	}
	return m, nil
}

func (m adminModel) View() string {
	var b strings.Builder
	tabs := []string{"Ingredients", "Locations"}
	var rendered []string
	for _, t := range tabs {
		if t == m.label() {
			rendered = append(rendered, selectedStyle.Render(t))
		} else {
			rendered = append(rendered, dimStyle.Render(t))
		}
	}
	b.WriteString("\n  " + strings.Join(rendered, metaStyle.Render("  |  ")) + "\n\n")

	if m.adding {
		b.WriteString(renderInput("new "+strings.ToLower(strings.TrimSuffix(m.label(), "s")), m.input, "title", true) + "\n\n")
	}

	switch {
	case m.loading && len(m.entries) == 0:
		b.WriteString("  " + dimStyle.Render("loading...") + "\n")
	case len(m.entries) == 0:
		b.WriteString("  " + dimStyle.Render("empty") + "\n")
	}
	for i, e := range m.entries {
		if i == m.cursor {
			b.WriteString(accentStyle.Render("> ") + selectedStyle.Render(e.Title) + "\n")
			continue
		}
		b.WriteString("  " + normalStyle.Render(e.Title) + "\n")
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
	} else if m.status != "" {
		b.WriteString("  " + okStyle.Render(m.status) + "\n")
	}
	return truncateToHeight(b.String(), m.height)
}

func (m adminModel) helpBar() string {
	if m.adding {
		return helpBar("enter", "add", "esc", "cancel")
	}
	return helpBar("tab", "ingredients/locations", "j/k", "nav", "n", "add", "x", "delete")
}
