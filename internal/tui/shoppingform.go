package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

type shoppingField int

const (
	shoppingFieldIngredient shoppingField = iota
	shoppingFieldQuantity
	shoppingFieldUnit
	shoppingFieldLocations
	numShoppingFields
)

// shoppingForm edits a shopping item by titles. Unknown titles are created
// in the dictionaries on save.
type shoppingForm struct {
	mode       domain.FormMode
	ingredient string
	quantity   string
	unit       string
	locations  string // comma separated titles
	focus      shoppingField
}

func closedShoppingForm() shoppingForm {
	return shoppingForm{mode: domain.Viewing{}}
}

func newShoppingForm() shoppingForm {
	return shoppingForm{mode: domain.Creating{}, quantity: "1"}
}

func editShoppingForm(it domain.ShoppingItem, ingredients, locations map[string]string) shoppingForm {
	locs := make([]string, 0, len(it.Location))
	for _, id := range it.Location {
		locs = append(locs, titleOr(locations, id))
	}
	return shoppingForm{
		mode:       domain.Editing{ID: it.ID},
		ingredient: titleOr(ingredients, it.Ingredient),
		quantity:   strconv.FormatFloat(it.Quantity, 'f', -1, 64),
		unit:       it.Unit,
		locations:  strings.Join(locs, ", "),
	}
}

func (f shoppingForm) open() bool { return f.mode != nil && domain.FormOpen(f.mode) }

// parse checks the form locally before any dictionary lookup.
func (f shoppingForm) parse() (ingredient string, qty float64, locations []string, err error) {
	ingredient = strings.TrimSpace(f.ingredient)
	if ingredient == "" {
		return "", 0, nil, &domain.ValidationError{Field: "ingredient", Reason: "is required"}
	}
	qty, perr := strconv.ParseFloat(strings.TrimSpace(f.quantity), 64)
	if perr != nil || !(qty > 0) {
		return "", 0, nil, &domain.ValidationError{Field: "quantity", Reason: "must be a positive number"}
	}
	return ingredient, qty, splitList(f.locations), nil
}

// save resolves titles to ids and creates or updates the item.
func (f shoppingForm) save(ctx context.Context, s *store.ShoppingStore) error {
	title, qty, locTitles, err := f.parse()
	if err != nil {
		return err
	}
	ingredient, err := s.Ingredients().ResolveOrCreate(ctx, title)
	if err != nil {
		return err
	}
	locations := make([]string, 0, len(locTitles))
	for _, t := range locTitles {
		id, err := s.Locations().ResolveOrCreate(ctx, t)
		if err != nil {
			return err
		}
		locations = append(locations, id)
	}
	unit := strings.TrimSpace(f.unit)

	if id, ok := domain.EditingID(f.mode); ok {
		_, err := s.Update(ctx, id, domain.ShoppingPatch{
			Ingredient: &ingredient,
			Quantity:   &qty,
			Unit:       &unit,
			Location:   &locations,
		})
		return err
	}
	_, err = s.Create(ctx, domain.ShoppingDraft{
		Ingredient: ingredient,
		Quantity:   qty,
		Unit:       unit,
		Location:   locations,
	})
	return err
}

func (f shoppingForm) update(msg tea.KeyMsg) (form shoppingForm, submit bool) {
	switch msg.String() {
	case "esc":
		return closedShoppingForm(), false
	case "ctrl+s":
		return f, true
	case "tab", "down", "enter":
		f.focus = (f.focus + 1) % numShoppingFields
		return f, false
	case "shift+tab", "up":
		f.focus = (f.focus + numShoppingFields - 1) % numShoppingFields
		return f, false
	}
	switch f.focus {
	case shoppingFieldIngredient:
		f.ingredient = editInput(f.ingredient, msg)
	case shoppingFieldQuantity:
		f.quantity = editInput(f.quantity, msg)
	case shoppingFieldUnit:
		f.unit = editInput(f.unit, msg)
	case shoppingFieldLocations:
		f.locations = editInput(f.locations, msg)
	}
	return f, false
}

func (f shoppingForm) View() string {
	var b strings.Builder
	heading := "Add to shopping list"
	if _, ok := domain.EditingID(f.mode); ok {
		heading = "Edit item"
	}
	b.WriteString("  " + sectionHeaderStyle.Render(heading) + "\n\n")
	b.WriteString(renderInput("ingredient", f.ingredient, "e.g. Milk", f.focus == shoppingFieldIngredient) + "\n")
	b.WriteString(renderInput("quantity", f.quantity, "1", f.focus == shoppingFieldQuantity) + "\n")
	b.WriteString(renderInput("unit", f.unit, "optional, e.g. kg", f.focus == shoppingFieldUnit) + "\n")
	b.WriteString(renderInput("where", f.locations, "optional, comma separated shops", f.focus == shoppingFieldLocations) + "\n")
	return b.String()
}
