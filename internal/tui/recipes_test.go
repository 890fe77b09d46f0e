package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

func TestParseRecipeLines(t *testing.T) {
	got, err := parseRecipeLines("200 g flour, 2 eggs, salt, 0.5 l whole milk")
	if err != nil {
		t.Fatalf("parseRecipeLines() error: %v", err)
	}
	want := []recipeLineInput{
		{title: "flour", quantity: 200, unit: "g"},
		{title: "eggs", quantity: 2},
		{title: "salt", quantity: 1},
		{title: "whole milk", quantity: 0.5, unit: "l"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseRecipeLinesErrors(t *testing.T) {
	for _, in := range []string{"", " , ", "0 eggs", "3"} {
		if _, err := parseRecipeLines(in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("parseRecipeLines(%q) error = %v, want a validation error", in, err)
		}
	}
}

func TestFormatRecipeLinesRoundTrip(t *testing.T) {
	r := domain.Recipe{ID: "r1", Title: "Pancakes", Ingredients: []domain.RecipeLine{
		{Ingredient: "i1", Quantity: 200, Unit: "g"},
		{Ingredient: "i2", Quantity: 2},
	}}
	text := formatRecipeLines(r, map[string]string{"i1": "Flour", "i2": "Eggs"})
	if text != "200 g Flour, 2 Eggs" {
		t.Errorf("formatRecipeLines() = %q", text)
	}
	lines, err := parseRecipeLines(text)
	if err != nil || len(lines) != 2 || lines[0].unit != "g" || lines[1].title != "Eggs" {
		t.Errorf("round trip = %+v, %v", lines, err)
	}
}

func TestRecipePartialFailureMessage(t *testing.T) {
	m := newRecipesModel(nil, nil)
	m, _ = m.Update(recipesLoadedMsg{
		gen:         m.gen,
		recipes:     []domain.Recipe{{ID: "r1", Title: "Omelette"}},
		ingredients: []domain.DictionaryEntry{{ID: "i2", Title: "Eggs"}},
	})
	pf := &store.PartialFailureError{
		Recipe: "Omelette",
		Total:  3,
		Failed: []store.LineError{{Line: 1, Ingredient: "i2", Err: errors.New("boom")}},
	}
	m, _ = m.Update(recipeExpandedMsg{gen: m.gen, recipe: "Omelette", drafts: 3, err: pf})
	if m.errMsg != "added 2 of 3 from Omelette; failed: Eggs" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

func TestRecipeExpandIgnoresRepeatWhileBusy(t *testing.T) {
	m := newRecipesModel(nil, nil)
	m, _ = m.Update(recipesLoadedMsg{gen: m.gen, recipes: []domain.Recipe{{ID: "r1", Title: "Soup"}}})
	m, cmd := m.Update(key("a"))
	if cmd == nil || !m.busy {
		t.Fatal("'a' should start adding the recipe")
	}
	if _, cmd = m.Update(key("a")); cmd != nil {
		t.Error("second 'a' while busy should do nothing")
	}
}

func TestLiveRecipeExpandPartialFailure(t *testing.T) {
	d, srv := liveDeps(t)
	login(t, d)
	flour := srv.AddIngredient("Flour")
	eggs := srv.AddIngredient("Eggs")
	milk := srv.AddIngredient("Milk")
	srv.AddRecipe(domain.Recipe{Title: "Pancakes", Ingredients: []domain.RecipeLine{
		{Ingredient: flour, Quantity: 200, Unit: "g"},
		{Ingredient: eggs, Quantity: 2},
		{Ingredient: milk, Quantity: 0.5, Unit: "l"},
	}})
	srv.FailItemsFor(eggs)

	m := newRecipesModel(d.Recipes, d.Shopping)
	m, load := m.reload()
	m, _ = m.Update(load())
	if len(m.list) != 1 {
		t.Fatalf("recipes = %d, want 1", len(m.list))
	}

	m, cmd := m.Update(key("a"))
	m, _ = m.Update(cmd())
	if m.busy {
		t.Error("busy should clear when the batch finishes")
	}
	if !strings.Contains(m.errMsg, "added 2 of 3") || !strings.Contains(m.errMsg, "Eggs") {
		t.Errorf("errMsg = %q, want a partial failure naming Eggs", m.errMsg)
	}
	if n := len(srv.Items()); n != 2 {
		t.Errorf("server has %d items, want 2", n)
	}
}

func TestLiveRecipeCreateResolvesIngredients(t *testing.T) {
	d, srv := liveDeps(t)
	login(t, d)
	srv.AddIngredient("Flour")

	m := newRecipesModel(d.Recipes, d.Shopping)
	m, load := m.reload()
	m, _ = m.Update(load())

	m, _ = m.Update(key("n"))
	m.form.title = "Bread"
	m.form.lines = "500 g flour, 1 tsp yeast"
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	m, _ = m.Update(cmd())
	if m.errMsg != "" {
		t.Fatalf("errMsg = %q", m.errMsg)
	}
	if len(m.list) != 1 || len(m.list[0].Ingredients) != 2 {
		t.Fatalf("recipes = %+v", m.list)
	}
	if n := len(srv.Ingredients()); n != 2 {
		t.Errorf("ingredients = %d, want Flour plus the new Yeast", n)
	}
}
