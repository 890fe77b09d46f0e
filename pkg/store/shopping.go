package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/naveenspark/homedash/pkg/domain"
)

// ShoppingStore lists and mutates the shared shopping list. It owns the
// ingredient and location dictionaries items refer to.
type ShoppingStore struct {
	api         API
	ingredients *Dictionary
	locations   *Dictionary

	mu       sync.RWMutex
	snapshot []domain.ShoppingItem
}

// NewShoppingStore creates a shopping store with its two dictionaries.
func NewShoppingStore(api API) *ShoppingStore {
	return &ShoppingStore{
		api:         api,
		ingredients: NewDictionary(api, Ingredients),
		locations:   NewDictionary(api, Locations),
	}
}

// Ingredients returns the ingredient dictionary.
func (s *ShoppingStore) Ingredients() *Dictionary { return s.ingredients }

// Locations returns the location dictionary.
func (s *ShoppingStore) Locations() *Dictionary { return s.locations }

// List fetches the shopping list in server order.
func (s *ShoppingStore) List(ctx context.Context) ([]domain.ShoppingItem, error) {
	var items []domain.ShoppingItem
	if err := s.api.Do(ctx, http.MethodGet, "/shopping/items", nil, &items); err != nil {
		return nil, fmt.Errorf("store.ListShopping: %w", err)
	}
	if err := validateAll(items); err != nil {
		return nil, fmt.Errorf("store.ListShopping: %w", err)
	}
	s.mu.Lock()
	s.snapshot = items
	s.mu.Unlock()
	return append([]domain.ShoppingItem(nil), items...), nil
}

// Snapshot returns the list from the last successful List.
func (s *ShoppingStore) Snapshot() []domain.ShoppingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ShoppingItem(nil), s.snapshot...)
}

// Create validates d against the dictionaries and adds the item.
func (s *ShoppingStore) Create(ctx context.Context, d domain.ShoppingDraft) (domain.ShoppingItem, error) {
	item, err := s.create(ctx, d)
	if err != nil {
		return domain.ShoppingItem{}, err
	}
	if _, err := s.List(ctx); err != nil {
		return item, fmt.Errorf("store.CreateShoppingItem: refresh: %w", err)
	}
	return item, nil
}

// create submits one item without refetching the list.
func (s *ShoppingStore) create(ctx context.Context, d domain.ShoppingDraft) (domain.ShoppingItem, error) {
	if err := d.Validate(); err != nil {
		return domain.ShoppingItem{}, err
	}
	if err := s.checkRefs(ctx, &d.Ingredient, d.Location); err != nil {
		return domain.ShoppingItem{}, err
	}
	if d.Location == nil {
		d.Location = []string{}
	}
	var created domain.ShoppingItem
	if err := s.api.Do(ctx, http.MethodPut, "/shopping/item", d, &created); err != nil {
		return domain.ShoppingItem{}, fmt.Errorf("store.CreateShoppingItem: %w", err)
	}
	return created, nil
}

// Update applies a partial change to an item.
func (s *ShoppingStore) Update(ctx context.Context, id string, p domain.ShoppingPatch) (domain.ShoppingItem, error) {
	if err := requireID(id); err != nil {
		return domain.ShoppingItem{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.ShoppingItem{}, err
	}
	var locations []string
	if p.Location != nil {
		locations = *p.Location
	}
	if err := s.checkRefs(ctx, p.Ingredient, locations); err != nil {
		return domain.ShoppingItem{}, err
	}
	var updated domain.ShoppingItem
	if err := s.api.Do(ctx, http.MethodPatch, "/shopping/item/"+escape(id), p, &updated); err != nil {
		return domain.ShoppingItem{}, fmt.Errorf("store.UpdateShoppingItem: %w", err)
	}
	if _, err := s.List(ctx); err != nil {
		return updated, fmt.Errorf("store.UpdateShoppingItem: refresh: %w", err)
	}
	return updated, nil
}

// Remove deletes an item.
func (s *ShoppingStore) Remove(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.api.Do(ctx, http.MethodDelete, "/shopping/item/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("store.RemoveShoppingItem: %w", err)
	}
	if _, err := s.List(ctx); err != nil {
		return fmt.Errorf("store.RemoveShoppingItem: refresh: %w", err)
	}
	return nil
}

// CreateIngredient adds an ingredient to the dictionary.
func (s *ShoppingStore) CreateIngredient(ctx context.Context, title string) (domain.Ingredient, error) {
	return s.ingredients.Create(ctx, title)
}

// CreateLocation adds a location to the dictionary.
func (s *ShoppingStore) CreateLocation(ctx context.Context, title string) (domain.Location, error) {
	return s.locations.Create(ctx, title)
}

// checkRefs requires the ingredient (when set) and every location to be
// known dictionary entries.
func (s *ShoppingStore) checkRefs(ctx context.Context, ingredient *string, locations []string) error {
	if ingredient != nil {
		ok, err := s.ingredients.Contains(ctx, *ingredient)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ValidationError{Field: "ingredient", Reason: fmt.Sprintf("unknown ingredient %q", *ingredient)}
		}
	}
	for _, loc := range locations {
		ok, err := s.locations.Contains(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ValidationError{Field: "location", Reason: fmt.Sprintf("unknown location %q", loc)}
		}
	}
	return nil
}
