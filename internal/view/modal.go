package view

// Modal is the single open dialog of a collection view. Exactly one of
// NoModal, Creating, Editing or ConfirmDelete.
type Modal interface {
	modal()
}

type NoModal struct{}

// Creating is the create form.
type Creating struct{}

// Editing is the edit form for Entity.
type Editing[T Entity] struct {
	Entity T
}

// ConfirmDelete asks whether Entity should be deleted. Err holds the last
// failed attempt so the dialog can offer a retry.
type ConfirmDelete[T Entity] struct {
	Entity T
	Err    error
}

func (NoModal) modal()          {}
func (Creating) modal()         {}
func (Editing[T]) modal()       {}
func (ConfirmDelete[T]) modal() {}

// Prompt is the confirmation text shown for a delete.
func (m ConfirmDelete[T]) Prompt() string {
	return `Are you sure you want to delete "` + m.Entity.DisplayLabel() + `"? This action cannot be undone.`
}
