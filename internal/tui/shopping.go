package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

// shoppingLoadedMsg carries the list plus both dictionaries.
type shoppingLoadedMsg struct {
	gen         int
	items       []domain.ShoppingItem
	ingredients []domain.DictionaryEntry
	locations   []domain.DictionaryEntry
	status      string
	err         error
}

type shoppingCopiedMsg struct {
	n   int
	err error
}

// shoppingSection is one location heading with its items.
type shoppingSection struct {
	title string
	items []domain.ShoppingItem
}

// shoppingSections orders location groups by title and appends the
// ungrouped items last. Locations missing from the dictionary use their id.
func shoppingSections(items []domain.ShoppingItem, locations []domain.DictionaryEntry) []shoppingSection {
	g := domain.GroupByLocation(items)
	names := titles(locations)
	ids := make([]string, 0, len(g.ByLocation))
	for id := range g.ByLocation {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := titleOr(names, ids[i]), titleOr(names, ids[j])
		if a != b {
			return strings.ToLower(a) < strings.ToLower(b)
		}
		return ids[i] < ids[j]
	})
	sections := make([]shoppingSection, 0, len(ids)+1)
	for _, id := range ids {
		sections = append(sections, shoppingSection{title: titleOr(names, id), items: g.ByLocation[id]})
	}
	if len(g.Ungrouped) > 0 {
		sections = append(sections, shoppingSection{title: "Anywhere", items: g.Ungrouped})
	}
	return sections
}

// FormatShoppingList renders the list as plain text grouped by location.
func FormatShoppingList(items []domain.ShoppingItem, ingredients, locations []domain.DictionaryEntry) string {
	names := titles(ingredients)
	var b strings.Builder
	for i, sec := range shoppingSections(items, locations) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.title + "\n")
		for _, it := range sec.items {
			fmt.Fprintf(&b, "- %s (%s)\n", titleOr(names, it.Ingredient), formatQuantity(it.Quantity, it.Unit))
		}
	}
	return b.String()
}

// shoppingModel shows the shopping list, flat or grouped by location.
type shoppingModel struct {
	store *store.ShoppingStore

	items       []domain.ShoppingItem
	ingredients []domain.DictionaryEntry
	locations   []domain.DictionaryEntry
	grouped     bool
	cursor      int
	gen         int
	loading     bool
	status      string
	errMsg      string
	form        shoppingForm
	height      int
}

func newShoppingModel(s *store.ShoppingStore) shoppingModel {
	return shoppingModel{store: s, grouped: true, form: closedShoppingForm()}
}

// rows is the display order the cursor moves over. In grouped mode an item
// with several locations appears once per location.
func (m shoppingModel) rows() []domain.ShoppingItem {
	if !m.grouped {
		return m.items
	}
	var out []domain.ShoppingItem
	for _, sec := range shoppingSections(m.items, m.locations) {
		out = append(out, sec.items...)
	}
	return out
}

func (m shoppingModel) selected() (domain.ShoppingItem, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return domain.ShoppingItem{}, false
	}
	return rows[m.cursor], true
}

func (m shoppingModel) reload() (shoppingModel, tea.Cmd) {
	m.gen++
	m.loading = true
	s, gen := m.store, m.gen
	return m, func() tea.Msg {
		ctx := context.Background()
		ingredients, err := s.Ingredients().Load(ctx)
		if err != nil {
			return shoppingLoadedMsg{gen: gen, err: err}
		}
		locations, err := s.Locations().Load(ctx)
		if err != nil {
			return shoppingLoadedMsg{gen: gen, err: err}
		}
		items, err := s.List(ctx)
		if err != nil {
			return shoppingLoadedMsg{gen: gen, err: err}
		}
		return shoppingLoadedMsg{gen: gen, items: items, ingredients: ingredients, locations: locations}
	}
}

func (m shoppingModel) leave() shoppingModel {
	m.gen++
	m.loading = false
	m.form = closedShoppingForm()
	return m
}

func (m shoppingModel) mutate(status string, fn func(context.Context, *store.ShoppingStore) error) tea.Cmd {
	s, gen := m.store, m.gen
	return func() tea.Msg {
		if err := fn(context.Background(), s); err != nil {
			return shoppingLoadedMsg{gen: gen, err: err}
		}
		return shoppingLoadedMsg{
			gen:         gen,
			items:       s.Snapshot(),
			ingredients: s.Ingredients().Options(),
			locations:   s.Locations().Options(),
			status:      status,
		}
	}
}

func (m shoppingModel) copyList() tea.Cmd {
	text := FormatShoppingList(m.items, m.ingredients, m.locations)
	n := len(m.items)
	return func() tea.Msg {
		return shoppingCopiedMsg{n: n, err: clipboard.WriteAll(text)}
	}
}

func (m shoppingModel) editing() bool { return m.form.open() }

func (m shoppingModel) Update(msg tea.Msg) (shoppingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case shoppingLoadedMsg:
		if msg.gen != m.gen {
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
		m.items = msg.items
		m.ingredients = msg.ingredients
		m.locations = msg.locations
		if n := len(m.rows()); m.cursor >= n {
			m.cursor = max(0, n-1)
		}
		if msg.status != "" {
			m.form = closedShoppingForm()
		}
		return m, nil

	case shoppingCopiedMsg:
		if msg.err != nil {
			m.errMsg = "clipboard unavailable: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.status = fmt.Sprintf("copied %d items", msg.n)
		return m, nil

	case tea.KeyMsg:
		if m.form.open() {
			form, submit := m.form.update(msg)
			m.form = form
			if !submit {
				return m, nil
			}
			if _, _, _, err := m.form.parse(); err != nil {
				m.errMsg = describeErr(err)
				return m, nil
			}
			m.errMsg = ""
			f := m.form
			return m, m.mutate("item saved", f.save)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

func (m shoppingModel) updateNav(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "g":
		m.grouped = !m.grouped
		m.cursor = 0
		return m, nil
	case "r":
		return m.reload()
	case "n":
		m.form = newShoppingForm()
		m.errMsg = ""
		return m, nil
	case "c":
		if len(m.items) == 0 {
			return m, nil
		}
		return m, m.copyList()
	}

	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	name := titleOr(titles(m.ingredients), it.Ingredient)
	switch msg.String() {
	case "e", "enter":
		m.form = editShoppingForm(it, titles(m.ingredients), titles(m.locations))
		m.errMsg = ""
		return m, nil
	case "x":
		return m, m.mutate(name+" removed", func(ctx context.Context, s *store.ShoppingStore) error {
			return s.Remove(ctx, it.ID)
		})
	case "+", "-":
		q := it.Quantity + 1
		if msg.String() == "-" {
			q = it.Quantity - 1
		}
		p := domain.ShoppingPatch{Quantity: &q}
		if err := p.Validate(); err != nil {
			m.errMsg = "quantity must stay positive, use x to remove"
			return m, nil
		}
		return m, m.mutate(fmt.Sprintf("%s: %s", name, formatQuantity(q, it.Unit)), func(ctx context.Context, s *store.ShoppingStore) error {
			_, err := s.Update(ctx, it.ID, p)
			return err
		})
	}
	return m, nil
}

func (m shoppingModel) View() string {
	if m.form.open() {
		out := "\n" + m.form.View()
		if m.errMsg != "" {
			out += "\n  " + errorStyle.Render(m.errMsg) + "\n"
		}
		return out
	}

	var b strings.Builder
	b.WriteString("\n  " + sectionHeaderStyle.Render("Shopping list") + dimStyle.Render(fmt.Sprintf("  %d items", len(m.items))) + "\n\n")

	switch {
	case m.loading && len(m.items) == 0:
		b.WriteString("  " + dimStyle.Render("loading...") + "\n")
	case len(m.items) == 0:
		b.WriteString("  " + dimStyle.Render("nothing to buy") + "\n")
	}

	names := titles(m.ingredients)
	row := 0
	renderItem := func(it domain.ShoppingItem) {
		cursor := "  "
		title := normalStyle.Render(titleOr(names, it.Ingredient))
		if row == m.cursor {
			cursor = accentStyle.Render("> ")
			title = selectedStyle.Render(titleOr(names, it.Ingredient))
		}
		b.WriteString("  " + cursor + title + "  " + metaStyle.Render(formatQuantity(it.Quantity, it.Unit)) + "\n")
		row++
	}
	if m.grouped {
		for _, sec := range shoppingSections(m.items, m.locations) {
			b.WriteString("  " + accentStyle.Render(sec.title) + "\n")
			for _, it := range sec.items {
				renderItem(it)
			}
		}
	} else {
		for _, it := range m.items {
			renderItem(it)
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

func (m shoppingModel) helpBar() string {
	if m.form.open() {
		return helpBar("tab", "next field", "ctrl+s", "save", "esc", "cancel")
	}
	return helpBar("j/k", "nav", "+/-", "quantity", "n", "add", "e", "edit", "x", "remove", "g", "group", "c", "copy")
}
