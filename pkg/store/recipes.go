package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/session"
)

// expandLimit bounds concurrent item submissions during expansion.
const expandLimit = 4

// RecipeStore lists and mutates recipes and expands them into the shopping list.
type RecipeStore struct {
	api      API
	shopping *ShoppingStore

	mu       sync.RWMutex
	snapshot []domain.Recipe
}

// NewRecipeStore creates a recipe store that expands into shopping.
func NewRecipeStore(api API, shopping *ShoppingStore) *RecipeStore {
	return &RecipeStore{api: api, shopping: shopping}
}

// List fetches every recipe.
func (s *RecipeStore) List(ctx context.Context) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	if err := s.api.Do(ctx, http.MethodGet, "/recipes", nil, &recipes); err != nil {
		return nil, fmt.Errorf("store.ListRecipes: %w", err)
	}
	if err := validateAll(recipes); err != nil {
		return nil, fmt.Errorf("store.ListRecipes: %w", err)
	}
	s.mu.Lock()
	s.snapshot = recipes
	s.mu.Unlock()
	return append([]domain.Recipe(nil), recipes...), nil
}

// Snapshot returns the recipes from the last successful List.
func (s *RecipeStore) Snapshot() []domain.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Recipe(nil), s.snapshot...)
}

// Create adds a recipe.
func (s *RecipeStore) Create(ctx context.Context, d domain.RecipeDraft) (domain.Recipe, error) {
	if err := d.Validate(); err != nil {
		return domain.Recipe{}, err
	}
	var created domain.Recipe
	if err := s.api.Do(ctx, http.MethodPut, "/recipe", d, &created); err != nil {
		return domain.Recipe{}, fmt.Errorf("store.CreateRecipe: %w", err)
	}
	if _, err := s.List(ctx); err != nil {
		return created, fmt.Errorf("store.CreateRecipe: refresh: %w", err)
	}
	return created, nil
}

// Update replaces a recipe's title and ingredient lines.
func (s *RecipeStore) Update(ctx context.Context, id string, d domain.RecipeDraft) (domain.Recipe, error) {
	if err := requireID(id); err != nil {
		return domain.Recipe{}, err
	}
	if err := d.Validate(); err != nil {
		return domain.Recipe{}, err
	}
	var updated domain.Recipe
	if err := s.api.Do(ctx, http.MethodPatch, "/recipe/"+escape(id), d, &updated); err != nil {
		return domain.Recipe{}, fmt.Errorf("store.UpdateRecipe: %w", err)
	}
	if _, err := s.List(ctx); err != nil {
		return updated, fmt.Errorf("store.UpdateRecipe: refresh: %w", err)
	}
	return updated, nil
}

// Remove deletes a recipe.
func (s *RecipeStore) Remove(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.api.Do(ctx, http.MethodDelete, "/recipe/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("store.RemoveRecipe: %w", err)
	}
	if _, err := s.List(ctx); err != nil {
		return fmt.Errorf("store.RemoveRecipe: refresh: %w", err)
	}
	return nil
}

// ExpandToShoppingList adds one shopping item per recipe line. Lines are
// submitted independently; when some fail the rest stay on the list and a
// *PartialFailureError names the failed lines. The shopping list is
// refetched once after the batch. An expired session stops the batch: no
// further lines are sent, nothing is refetched and session.ErrExpired is
// returned as is.
func (s *RecipeStore) ExpandToShoppingList(ctx context.Context, r domain.Recipe) ([]domain.ShoppingDraft, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	drafts := r.ShoppingDrafts()
	if _, err := s.shopping.Ingredients().Load(ctx); err != nil {
		return nil, fmt.Errorf("store.ExpandToShoppingList: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var expired atomic.Bool
	errs := make([]error, len(drafts))
	submit := func(i int) {
		if expired.Load() {
			return
		}
		_, err := s.shopping.create(ctx, drafts[i])
		if errors.Is(err, session.ErrExpired) {
			expired.Store(true)
			cancel()
		}
		errs[i] = err
	}

	// The first line goes alone so an expired session is seen once.
	submit(0)
	var g errgroup.Group
	g.SetLimit(expandLimit)
	for i := 1; i < len(drafts); i++ {
		g.Go(func() error {
			submit(i)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-line errors are collected in errs

	if expired.Load() {
		return nil, session.ErrExpired
	}

	var failed []LineError
	for i, err := range errs {
		if err != nil {
			failed = append(failed, LineError{Line: i, Ingredient: drafts[i].Ingredient, Err: err})
		}
	}

	if _, err := s.shopping.List(ctx); err != nil && len(failed) == 0 {
		return drafts, fmt.Errorf("store.ExpandToShoppingList: refresh: %w", err)
	}
	if len(failed) > 0 {
		return drafts, &PartialFailureError{Recipe: r.Title, Total: len(drafts), Failed: failed}
	}
	return drafts, nil
}
