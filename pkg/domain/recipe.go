package domain

import (
	"fmt"
	"strings"
)

// RecipeLine is one ingredient of a recipe with its amount.
type RecipeLine struct {
	Ingredient string  `json:"_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit,omitempty"`
}

// Recipe is an ordered list of ingredient lines under a title.
type Recipe struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Ingredients []RecipeLine `json:"ingredients"`
}

// Validate checks a recipe decoded from the API.
func (r Recipe) Validate() error {
	if r.ID == "" {
		return malformed("recipe", "missing _id")
	}
	if strings.TrimSpace(r.Title) == "" {
		return malformed("recipe "+r.ID, "missing title")
	}
	if len(r.Ingredients) == 0 {
		return malformed("recipe "+r.ID, "has no ingredients")
	}
	for i, l := range r.Ingredients {
		if l.Ingredient == "" {
			return malformed("recipe "+r.ID, fmt.Sprintf("line %d has no ingredient", i+1))
		}
	}
	return nil
}

// ShoppingDrafts maps each line to a shopping item draft, in recipe order.
// Lines without a quantity default to one unit.
func (r Recipe) ShoppingDrafts() []ShoppingDraft {
	drafts := make([]ShoppingDraft, 0, len(r.Ingredients))
	for _, l := range r.Ingredients {
		q := l.Quantity
		if q <= 0 {
			q = 1
		}
		drafts = append(drafts, ShoppingDraft{
			Ingredient: l.Ingredient,
			Quantity:   q,
			Unit:       l.Unit,
			Location:   []string{},
		})
	}
	return drafts
}

// RecipeDraft is the payload for creating or replacing a recipe.
type RecipeDraft struct {
	Title       string       `json:"title"`
	Ingredients []RecipeLine `json:"ingredients"`
}

// Validate requires a title and at least one complete ingredient line.
func (d RecipeDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title", "is required")
	}
	if len(d.Ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	for i, l := range d.Ingredients {
		if l.Ingredient == "" {
			return invalid(fmt.Sprintf("ingredients[%d]", i), "ingredient is required")
		}
		if !(l.Quantity > 0) {
			return invalid(fmt.Sprintf("ingredients[%d]", i), "quantity must be a positive number")
		}
	}
	return nil
}
