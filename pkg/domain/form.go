package domain

// FormMode is the dialog state of an entity editor. It is one of Viewing,
// Creating or Editing.
type FormMode interface {
	formMode()
}

// Viewing means no editor is open.
type Viewing struct{}

// Creating means the editor is open for a new entity.
type Creating struct{}

// Editing means the editor is open for the entity with ID.
type Editing struct {
	ID string
}

func (Viewing) formMode()  {}
func (Creating) formMode() {}
func (Editing) formMode()  {}

// EditingID returns the id under edit, if any.
func EditingID(m FormMode) (string, bool) {
	e, ok := m.(Editing)
	return e.ID, ok
}

// FormOpen reports whether an editor is open.
func FormOpen(m FormMode) bool {
	switch m.(type) {
	case Creating, Editing:
		return true
	}
	return false
}
