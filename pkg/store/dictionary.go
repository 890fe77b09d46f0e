package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/naveenspark/homedash/pkg/domain"
)

// Collection names a dictionary on the API.
type Collection string

const (
	Ingredients Collection = "ingredient"
	Locations   Collection = "location"
)

func (c Collection) listPath() string { return "/shopping/" + string(c) + "s" }
func (c Collection) itemPath() string { return "/shopping/" + string(c) }

// Dictionary is a shared reference collection with resolve-or-create lookup.
// It is the only writer of its entries and reloads after every change.
type Dictionary struct {
	api  API
	kind Collection

	mu      sync.RWMutex
	entries []domain.DictionaryEntry
	loaded  bool
}

// NewDictionary creates an empty, unloaded dictionary.
func NewDictionary(api API, kind Collection) *Dictionary {
	return &Dictionary{api: api, kind: kind}
}

// Kind returns the collection this dictionary serves.
func (d *Dictionary) Kind() Collection { return d.kind }

// Load replaces the local entries with the server's.
func (d *Dictionary) Load(ctx context.Context) ([]domain.DictionaryEntry, error) {
	var entries []domain.DictionaryEntry
	if err := d.api.Do(ctx, http.MethodGet, d.kind.listPath(), nil, &entries); err != nil {
		return nil, fmt.Errorf("store.Load(%s): %w", d.kind, err)
	}
	if err := validateAll(entries); err != nil {
		return nil, fmt.Errorf("store.Load(%s): %w", d.kind, err)
	}
	d.mu.Lock()
	d.entries = entries
	d.loaded = true
	d.mu.Unlock()
	return d.Options(), nil
}

// Options returns a copy of the loaded entries.
func (d *Dictionary) Options() []domain.DictionaryEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.DictionaryEntry(nil), d.entries...)
}

// Find returns the loaded entry with the given id.
func (d *Dictionary) Find(id string) (domain.DictionaryEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.DictionaryEntry{}, false
}

// Title returns the title for id, or id itself when unknown.
func (d *Dictionary) Title(id string) string {
	if e, ok := d.Find(id); ok {
		return e.Title
	}
	return id
}

// Lookup matches title exactly against loaded entries, trying it as typed
// and with its first letter capitalized.
func (d *Dictionary) Lookup(title string) (string, bool) {
	raw := strings.TrimSpace(title)
	capitalized := domain.CapitalizeTitle(raw)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, want := range []string{raw, capitalized} {
		for _, e := range d.entries {
			if e.Title == want {
				return e.ID, true
			}
		}
	}
	return "", false
}

// Contains reports whether id is a known entry, reloading once on a miss.
func (d *Dictionary) Contains(ctx context.Context, id string) (bool, error) {
	if _, ok := d.Find(id); ok {
		return true, nil
	}
	if _, err := d.Load(ctx); err != nil {
		return false, err
	}
	_, ok := d.Find(id)
	return ok, nil
}

// ResolveOrCreate returns the id of the entry titled title, creating it when
// no loaded entry matches. Concurrent calls for the same new title may both
// create.
func (d *Dictionary) ResolveOrCreate(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if !loaded {
		if _, err := d.Load(ctx); err != nil {
			return "", err
		}
	}
	if id, ok := d.Lookup(title); ok {
		return id, nil
	}
	e, err := d.Create(ctx, title)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// Create adds an entry with a capitalized title and reloads the dictionary
// before returning, so the new id is immediately resolvable.
func (d *Dictionary) Create(ctx context.Context, title string) (domain.DictionaryEntry, error) {
	title = domain.CapitalizeTitle(title)
	if title == "" {
		return domain.DictionaryEntry{}, &domain.ValidationError{Field: "title", Reason: "is required"}
	}

	body := map[string]any{"item": map[string]string{"title": title}}
	var resp struct {
		InsertedID string `json:"insertedId"`
		ID         string `json:"_id"`
	}
	if err := d.api.Do(ctx, http.MethodPut, d.kind.itemPath(), body, &resp); err != nil {
		return domain.DictionaryEntry{}, fmt.Errorf("store.Create(%s): %w", d.kind, err)
	}
	id := resp.InsertedID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return domain.DictionaryEntry{}, fmt.Errorf("store.Create(%s): %w: no insertedId", d.kind, domain.ErrMalformed)
	}

	entry := domain.DictionaryEntry{ID: id, Title: title}
	if _, err := d.Load(ctx); err != nil {
		return entry, fmt.Errorf("store.Create(%s): refresh: %w", d.kind, err)
	}
	return entry, nil
}

// Delete removes an entry and reloads.
func (d *Dictionary) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := d.api.Do(ctx, http.MethodDelete, d.kind.itemPath()+"/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("store.Delete(%s): %w", d.kind, err)
	}
	if _, err := d.Load(ctx); err != nil {
		return fmt.Errorf("store.Delete(%s): refresh: %w", d.kind, err)
	}
	return nil
}
