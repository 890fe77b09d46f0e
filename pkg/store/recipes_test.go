package store

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/session"
)

func TestExpandPartialFailure(t *testing.T) {
	g, srv := loggedIn(t)
	flour := srv.AddIngredient("Flour")
	eggs := srv.AddIngredient("Eggs")
	milk := srv.AddIngredient("Milk")
	srv.FailItemsFor(eggs)

	shopping := NewShoppingStore(g)
	recipes := NewRecipeStore(g, shopping)
	r := domain.Recipe{ID: "r1", Title: "Pancakes", Ingredients: []domain.RecipeLine{
		{Ingredient: flour, Quantity: 200, Unit: "g"},
		{Ingredient: eggs, Quantity: 2},
		{Ingredient: milk, Quantity: 300, Unit: "ml"},
	}}

	drafts, err := recipes.ExpandToShoppingList(context.Background(), r)
	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want *PartialFailureError", err)
	}
	if len(drafts) != 3 {
		t.Errorf("got %d drafts, want 3", len(drafts))
	}
	if len(pf.Failed) != 1 || pf.Failed[0].Line != 1 || pf.Failed[0].Ingredient != eggs {
		t.Errorf("Failed = %+v, want only line 1 (eggs)", pf.Failed)
	}
	if pf.Added() != 2 {
		t.Errorf("Added() = %d, want 2", pf.Added())
	}

	got := map[string]bool{}
	for _, it := range srv.Items() {
		got[it.Ingredient] = true
	}
	if !got[flour] || !got[milk] || got[eggs] {
		t.Errorf("server items = %v, want flour and milk only", got)
	}
	if len(shopping.Snapshot()) != 2 {
		t.Errorf("shopping snapshot has %d items, want 2", len(shopping.Snapshot()))
	}
	if n := srv.Calls("GET /shopping/items"); n != 1 {
		t.Errorf("shopping list fetched %d times, want once", n)
	}
}

func TestExpandSuccess(t *testing.T) {
	g, srv := loggedIn(t)
	salt := srv.AddIngredient("Salt")
	shopping := NewShoppingStore(g)
	recipes := NewRecipeStore(g, shopping)

	r := domain.Recipe{ID: "r1", Title: "Brine", Ingredients: []domain.RecipeLine{{Ingredient: salt}}}
	if _, err := recipes.ExpandToShoppingList(context.Background(), r); err != nil {
		t.Fatalf("ExpandToShoppingList() error: %v", err)
	}
	items := shopping.Snapshot()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("items = %+v, want one salt item with quantity 1", items)
	}
}

func TestRecipeCRUD(t *testing.T) {
	g, srv := loggedIn(t)
	flour := srv.AddIngredient("Flour")
	s := NewRecipeStore(g, NewShoppingStore(g))
	ctx := context.Background()

	if _, err := s.Create(ctx, domain.RecipeDraft{Title: "Bread"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Create without ingredients err = %v, want validation error", err)
	}
	if n := srv.Calls("PUT /recipe"); n != 0 {
		t.Errorf("PUT /recipe calls = %d, want 0", n)
	}

	created, err := s.Create(ctx, domain.RecipeDraft{
		Title:       "Bread",
		Ingredients: []domain.RecipeLine{{Ingredient: flour, Quantity: 500, Unit: "g"}},
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, domain.RecipeDraft{
		Title:       "Loaf",
		Ingredients: []domain.RecipeLine{{Ingredient: flour, Quantity: 750, Unit: "g"}},
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.Title != "Loaf" || updated.Ingredients[0].Quantity != 750 {
		t.Errorf("updated = %+v", updated)
	}
	if snap := s.Snapshot(); len(snap) != 1 || snap[0].Title != "Loaf" {
		t.Errorf("snapshot = %+v, want one recipe Loaf", snap)
	}

	if err := s.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if len(s.Snapshot()) != 0 {
		t.Error("recipe still listed after Remove")
	}
}

func TestExpandStopsOnExpiredSession(t *testing.T) {
	g, srv := loggedIn(t)
	flour := srv.AddIngredient("Flour")
	eggs := srv.AddIngredient("Eggs")
	milk := srv.AddIngredient("Milk")
	var signals int
	g.OnExpired(func() { signals++ })

	shopping := NewShoppingStore(g)
	recipes := NewRecipeStore(g, shopping)
	r := domain.Recipe{ID: "r1", Title: "Pancakes", Ingredients: []domain.RecipeLine{
		{Ingredient: flour, Quantity: 200, Unit: "g"},
		{Ingredient: eggs, Quantity: 2},
		{Ingredient: milk, Quantity: 300, Unit: "ml"},
	}}

	srv.Fail("PUT /shopping/item", http.StatusUnauthorized)
	drafts, err := recipes.ExpandToShoppingList(context.Background(), r)
	if !errors.Is(err, session.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	var pf *PartialFailureError
	if errors.As(err, &pf) {
		t.Error("an expired session should not be reported as a partial failure")
	}
	if drafts != nil {
		t.Errorf("drafts = %+v, want nil", drafts)
	}
	if signals != 1 {
		t.Errorf("signals = %d, want 1", signals)
	}
	if n := srv.Calls("PUT /shopping/item"); n != 1 {
		t.Errorf("item submissions = %d, want 1", n)
	}
	if n := srv.Calls("GET /shopping/items"); n != 0 {
		t.Errorf("shopping list fetched %d times, want none", n)
	}
}

func TestExpandRejectsEmptyRecipe(t *testing.T) {
	g, srv := loggedIn(t)
	recipes := NewRecipeStore(g, NewShoppingStore(g))
	_, err := recipes.ExpandToShoppingList(context.Background(), domain.Recipe{ID: "r1", Title: "Air"})
	if !errors.Is(err, domain.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
	if n := srv.Calls("GET /shopping/ingredients"); n != 0 {
		t.Errorf("ingredients fetched %d times, want none", n)
	}
}
