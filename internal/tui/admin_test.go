package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/domain"
	"github.com/naveenspark/homedash/pkg/store"
)

func TestAdminTabSwitchesDictionary(t *testing.T) {
	m := newAdminModel(nil)
	m, _ = m.Update(adminLoadedMsg{gen: m.gen, kind: store.Ingredients, entries: []domain.DictionaryEntry{{ID: "i1", Title: "Milk"}}})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.kind != store.Locations || cmd == nil {
		t.Fatalf("kind = %q, cmd = %v, want locations reload", m.kind, cmd)
	}
	if len(m.entries) != 0 {
		t.Error("entries from the other dictionary should be cleared")
	}

	// a late ingredient result must not land in the locations tab
	m, _ = m.Update(adminLoadedMsg{gen: m.gen, kind: store.Ingredients, entries: []domain.DictionaryEntry{{ID: "i1", Title: "Milk"}}})
	if len(m.entries) != 0 {
		t.Errorf("entries = %+v, want none", m.entries)
	}
}

func TestAdminAddRequiresTitle(t *testing.T) {
	m := newAdminModel(nil)
	m, _ = m.Update(key("n"))
	if !m.editing() {
		t.Fatal("'n' should open the input")
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.errMsg == "" {
		t.Errorf("empty title: cmd = %v, errMsg = %q", cmd, m.errMsg)
	}
}

func TestLiveAdminCreateAndDelete(t *testing.T) {
	d, srv := liveDeps(t)
	login(t, d)
	srv.AddLocation("Market")

	m := newAdminModel(d.Shopping)
	m, load := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(load())
	if len(m.entries) != 1 {
		t.Fatalf("entries = %+v, want Market", m.entries)
	}

	m, _ = m.Update(key("n"))
	for _, r := range "bakery" {
		m, _ = m.Update(key(string(r)))
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())
	if len(m.entries) != 2 || !strings.Contains(m.status, "Bakery") {
		t.Fatalf("entries = %+v, status = %q", m.entries, m.status)
	}

	m.cursor = 0
	m, cmd = m.Update(key("x"))
	m, _ = m.Update(cmd())
	if len(m.entries) != 1 {
		t.Errorf("entries = %+v after delete, want 1", m.entries)
	}
}
