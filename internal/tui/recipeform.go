package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

// recipeLineInput is one parsed entry of the ingredients field.
type recipeLineInput struct {
	title    string
	quantity float64
	unit     string
}

// parseRecipeLines reads entries such as "200 g flour, 2 eggs, salt".
// A leading number is the quantity (default 1). With a quantity and at
// least two more words, the first of them is the unit.
func parseRecipeLines(s string) ([]recipeLineInput, error) {
	var lines []recipeLineInput
	for i, entry := range splitList(s) {
		words := strings.Fields(entry)
		line := recipeLineInput{quantity: 1}
		if q, err := strconv.ParseFloat(words[0], 64); err == nil {
			if !(q > 0) {
				return nil, &domain.ValidationError{Field: fmt.Sprintf("ingredients[%d]", i), Reason: "quantity must be a positive number"}
			}
			line.quantity = q
			words = words[1:]
			if len(words) >= 2 {
				line.unit = words[0]
				words = words[1:]
			}
		}
		if len(words) == 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("ingredients[%d]", i), Reason: "ingredient is required"}
		}
		line.title = strings.Join(words, " ")
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Field: "ingredients", Reason: "at least one ingredient is required"}
	}
	return lines, nil
}

// formatRecipeLines is the inverse of parseRecipeLines.
func formatRecipeLines(r domain.Recipe, ingredients map[string]string) string {
	parts := make([]string, 0, len(r.Ingredients))
	for _, l := range r.Ingredients {
		q := strconv.FormatFloat(l.Quantity, 'f', -1, 64)
		if l.Unit != "" {
			q += " " + l.Unit
		}
		parts = append(parts, q+" "+titleOr(ingredients, l.Ingredient))
	}
	return strings.Join(parts, ", ")
}

type recipeField int

const (
	recipeFieldTitle recipeField = iota
	recipeFieldLines
	numRecipeFields
)

type recipeForm struct {
	mode  domain.FormMode
	title string
	lines string
	focus recipeField
}

func closedRecipeForm() recipeForm { return recipeForm{mode: domain.Viewing{}} }

func newRecipeForm() recipeForm { return recipeForm{mode: domain.Creating{}} }

func editRecipeForm(r domain.Recipe, ingredients map[string]string) recipeForm {
	return recipeForm{
		mode:  domain.Editing{ID: r.ID},
		title: r.Title,
		lines: formatRecipeLines(r, ingredients),
	}
}

func (f recipeForm) open() bool { return f.mode != nil && domain.FormOpen(f.mode) }

func (f recipeForm) check() ([]recipeLineInput, error) {
	if strings.TrimSpace(f.title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	return parseRecipeLines(f.lines)
}

// save resolves ingredient titles, creating unknown ones, then stores the recipe.
func (f recipeForm) save(ctx context.Context, recipes *store.RecipeStore, ingredients *store.Dictionary) error {
	parsed, err := f.check()
	if err != nil {
		return err
	}
	d := domain.RecipeDraft{Title: strings.TrimSpace(f.title)}
	for _, l := range parsed {
		id, err := ingredients.ResolveOrCreate(ctx, l.title)
		if err != nil {
			return err
		}
		d.Ingredients = append(d.Ingredients, domain.RecipeLine{Ingredient: id, Quantity: l.quantity, Unit: l.unit})
	}
	if id, ok := domain.EditingID(f.mode); ok {
		_, err = recipes.Update(ctx, id, d)
		return err
	}
	_, err = recipes.Create(ctx, d)
	return err
}

func (f recipeForm) update(msg tea.KeyMsg) (form recipeForm, submit bool) {
	switch msg.String() {
	case "esc":
		return closedRecipeForm(), false
	case "ctrl+s":
		return f, true
	case "tab", "shift+tab", "down", "up", "enter":
		f.focus = (f.focus + 1) % numRecipeFields
		return f, false
	}
	if f.focus == recipeFieldTitle {
		f.title = editInput(f.title, msg)
	} else {
		f.lines = editInput(f.lines, msg)
	}
	return f, false
}

func (f recipeForm) View() string {
	var b strings.Builder
	heading := "New recipe"
	if _, ok := domain.EditingID(f.mode); ok {
		heading = "Edit recipe"
	}
	b.WriteString("  " + sectionHeaderStyle.Render(heading) + "\n\n")
	b.WriteString(renderInput("title", f.title, "e.g. Pancakes", f.focus == recipeFieldTitle) + "\n")
	b.WriteString(renderInput("ingredients", f.lines, "200 g flour, 2 eggs, milk", f.focus == recipeFieldLines) + "\n")
	return b.String()
}
