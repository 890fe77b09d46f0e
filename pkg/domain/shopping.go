package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DictionaryEntry is a shared reference value addressed by title.
type DictionaryEntry struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Ingredient is a dictionary entry naming something that can be bought.
type Ingredient = DictionaryEntry

// Location is a dictionary entry naming where something is bought.
type Location = DictionaryEntry

// Validate checks an entry decoded from the API.
func (e DictionaryEntry) Validate() error {
	if e.ID == "" {
		return malformed("dictionary entry", "missing _id")
	}
	return nil
}

// CapitalizeTitle upper-cases the first letter of a trimmed title.
func CapitalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	r, size := utf8.DecodeRuneInString(title)
	if r == utf8.RuneError {
		return title
	}
	return string(unicode.ToUpper(r)) + title[size:]
}

// ShoppingItem is one line of the shared shopping list.
type ShoppingItem struct {
	ID         string   `json:"_id"`
	Ingredient string   `json:"ingredient"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit,omitempty"`
	Location   []string `json:"location"`
}

// Validate checks an item decoded from the API.
func (i ShoppingItem) Validate() error {
	if i.ID == "" {
		return malformed("shopping item", "missing _id")
	}
	if i.Ingredient == "" {
		return malformed("shopping item "+i.ID, "missing ingredient")
	}
	if i.Quantity <= 0 {
		return malformed("shopping item "+i.ID, "non-positive quantity")
	}
	return nil
}

// ShoppingDraft is the payload for creating a shopping item.
type ShoppingDraft struct {
	Ingredient string   `json:"ingredient"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit,omitempty"`
	Location   []string `json:"location"`
}

// Validate rejects drafts without an ingredient or a positive quantity.
func (d ShoppingDraft) Validate() error {
	if d.Ingredient == "" {
		return invalid("ingredient", "is required")
	}
	if !(d.Quantity > 0) {
		return invalid("quantity", "must be a positive number")
	}
	return nil
}

// ShoppingPatch is a partial shopping item update.
type ShoppingPatch struct {
	Ingredient *string  `json:"ingredient,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Unit       *string  `json:"unit,omitempty"`
	// Location replaces the item's locations when set. A pointer to an
	// empty slice clears them.
	Location *[]string `json:"location,omitempty"`
}

// Validate rejects patches that would break item invariants.
func (p ShoppingPatch) Validate() error {
	if p.Ingredient != nil && *p.Ingredient == "" {
		return invalid("ingredient", "cannot be cleared")
	}
	if p.Quantity != nil && !(*p.Quantity > 0) {
		return invalid("quantity", "must be a positive number")
	}
	return nil
}

// Grouping is the by-location view of a shopping list.
type Grouping struct {
	// ByLocation maps a location id to every item tagged with it, in list order.
	ByLocation map[string][]ShoppingItem
	// Ungrouped holds items without any location.
	Ungrouped []ShoppingItem
}

// GroupByLocation fans items out to each location they carry. An item tagged
// with the same location twice still appears once in that group.
func GroupByLocation(items []ShoppingItem) Grouping {
	g := Grouping{ByLocation: make(map[string][]ShoppingItem)}
	for _, it := range items {
		if len(it.Location) == 0 {
			g.Ungrouped = append(g.Ungrouped, it)
			continue
		}
		seen := make(map[string]bool, len(it.Location))
		for _, loc := range it.Location {
			if seen[loc] {
				continue
			}
			seen[loc] = true
			g.ByLocation[loc] = append(g.ByLocation[loc], it)
		}
	}
	return g
}
