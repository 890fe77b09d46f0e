package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

type recipesLoadedMsg struct {
	gen         int
	recipes     []domain.Recipe
	ingredients []domain.DictionaryEntry
	status      string
	err         error
}

// recipeExpandedMsg reports an add-to-shopping-list run.
type recipeExpandedMsg struct {
	gen    int
	recipe string
	drafts int
	err    error
}

type recipesModel struct {
	recipes  *store.RecipeStore
	shopping *store.ShoppingStore

	list        []domain.Recipe
	ingredients []domain.DictionaryEntry
	cursor      int
	expanded    bool // show the selected recipe's lines
	gen         int
	loading     bool
	busy        bool
	status      string
	errMsg      string
	form        recipeForm
	height      int
}

func newRecipesModel(r *store.RecipeStore, s *store.ShoppingStore) recipesModel {
	return recipesModel{recipes: r, shopping: s, form: closedRecipeForm()}
}

func (m recipesModel) reload() (recipesModel, tea.Cmd) {
	m.gen++
	m.loading = true
	rs, ss, gen := m.recipes, m.shopping, m.gen
	return m, func() tea.Msg {
		ctx := context.Background()
		ingredients, err := ss.Ingredients().Load(ctx)
		if err != nil {
			return recipesLoadedMsg{gen: gen, err: err}
		}
		list, err := rs.List(ctx)
		if err != nil {
			return recipesLoadedMsg{gen: gen, err: err}
		}
		return recipesLoadedMsg{gen: gen, recipes: list, ingredients: ingredients}
	}
}

func (m recipesModel) leave() recipesModel {
	m.gen++
	m.loading = false
	m.busy = false
	m.form = closedRecipeForm()
	return m
}

func (m recipesModel) mutate(status string, fn func(ctx context.Context) error) tea.Cmd {
	rs, ss, gen := m.recipes, m.shopping, m.gen
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return recipesLoadedMsg{gen: gen, err: err}
		}
		return recipesLoadedMsg{gen: gen, recipes: rs.Snapshot(), ingredients: ss.Ingredients().Options(), status: status}
	}
}

func (m recipesModel) expand(r domain.Recipe) tea.Cmd {
	rs, gen := m.recipes, m.gen
	return func() tea.Msg {
		drafts, err := rs.ExpandToShoppingList(context.Background(), r)
		return recipeExpandedMsg{gen: gen, recipe: r.Title, drafts: len(drafts), err: err}
	}
}

func (m recipesModel) selected() (domain.Recipe, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return domain.Recipe{}, false
	}
	return m.list[m.cursor], true
}

func (m recipesModel) editing() bool { return m.form.open() }

func (m recipesModel) Update(msg tea.Msg) (recipesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recipesLoadedMsg:
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
		m.list = msg.recipes
		m.ingredients = msg.ingredients
		if m.cursor >= len(m.list) {
			m.cursor = max(0, len(m.list)-1)
		}
		if msg.status != "" {
			m.form = closedRecipeForm()
		}
		return m, nil

	case recipeExpandedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.busy = false
		var pf *store.PartialFailureError
		switch {
		case msg.err == nil:
			m.errMsg = ""
			m.status = fmt.Sprintf("added %d items from %s", msg.drafts, msg.recipe)
		case errors.As(msg.err, &pf):
			m.status = ""
			m.errMsg = m.partialFailure(pf)
		default:
			m.status = ""
			m.errMsg = describeErr(msg.err)
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

// partialFailure names the ingredients that could not be added.
func (m recipesModel) partialFailure(pf *store.PartialFailureError) string {
	names := titles(m.ingredients)
	failed := make([]string, 0, len(pf.Failed))
	for _, f := range pf.Failed {
		failed = append(failed, titleOr(names, f.Ingredient))
	}
	return fmt.Sprintf("added %d of %d from %s; failed: %s", pf.Added(), pf.Total, pf.Recipe, strings.Join(failed, ", "))
}

func (m recipesModel) updateForm(msg tea.KeyMsg) (recipesModel, tea.Cmd) {
	form, submit := m.form.update(msg)
	m.form = form
	if !submit {
		return m, nil
	}
	if _, err := m.form.check(); err != nil {
		m.errMsg = describeErr(err)
		return m, nil
	}
	m.errMsg = ""
	f, rs, ss := m.form, m.recipes, m.shopping
	return m, m.mutate("recipe saved", func(ctx context.Context) error {
		return f.save(ctx, rs, ss.Ingredients())
	})
}

func (m recipesModel) updateNav(msg tea.KeyMsg) (recipesModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.list)-1 {
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
	case "n":
		m.form = newRecipeForm()
		m.errMsg = ""
		return m, nil
	}

	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch msg.String() {
	case "enter":
		m.expanded = !m.expanded
		return m, nil
	case "e":
		m.form = editRecipeForm(r, titles(m.ingredients))
		m.errMsg = ""
		return m, nil
	case "a":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "adding " + r.Title + " to the shopping list..."
		m.errMsg = ""
		return m, m.expand(r)
	case "x":
		rs := m.recipes
		return m, m.mutate(r.Title+" deleted", func(ctx context.Context) error {
			return rs.Remove(ctx, r.ID)
		})
	}
	return m, nil
}

func (m recipesModel) View() string {
	if m.form.open() {
		out := "\n" + m.form.View()
		if m.errMsg != "" {
			out += "\n  " + errorStyle.Render(m.errMsg) + "\n"
		}
		return out
	}

	var b strings.Builder
	b.WriteString("\n  " + sectionHeaderStyle.Render("Recipes") + "\n\n")
	switch {
	case m.loading && len(m.list) == 0:
		b.WriteString("  " + dimStyle.Render("loading...") + "\n")
	case len(m.list) == 0:
		b.WriteString("  " + dimStyle.Render("no recipes yet, n to add one") + "\n")
	}

	names := titles(m.ingredients)
	for i, r := range m.list {
		cursor := "  "
		title := normalStyle.Render(r.Title)
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			title = selectedStyle.Render(r.Title)
		}
		b.WriteString(cursor + title + "  " + metaStyle.Render(fmt.Sprintf("%d ingredients", len(r.Ingredients))) + "\n")
		if i == m.cursor && m.expanded {
			for _, l := range r.Ingredients {
				b.WriteString("      " + dimStyle.Render(titleOr(names, l.Ingredient)) + "  " + metaStyle.Render(formatQuantity(l.Quantity, l.Unit)) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
	} else if m.status != "" {
		style := okStyle
		if m.busy {
			style = dimStyle
		}
		b.WriteString("  " + style.Render(m.status) + "\n")
	}
	return truncateToHeight(b.String(), m.height)
}

func (m recipesModel) helpBar() string {
	if m.form.open() {
		return helpBar("tab", "next field", "ctrl+s", "save", "esc", "cancel")
	}
	return helpBar("j/k", "nav", "enter", "show", "a", "add to list", "n", "new", "e", "edit", "x", "delete")
}
