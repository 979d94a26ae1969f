package view

import "context"

func (c *Controller[T, F]) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// DeletingID is the id of the row whose delete is in flight, or empty.
func (c *Controller[T, F]) DeletingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deletingID
}

func (c *Controller[T, F]) OpenCreate() error { return c.open(Creating{}) }

func (c *Controller[T, F]) OpenEdit(e T) error { return c.open(Editing[T]{Entity: e}) }

func (c *Controller[T, F]) OpenDelete(e T) error { return c.open(ConfirmDelete[T]{Entity: e}) }

func (c *Controller[T, F]) open(m Modal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyLocked() {
		return ErrBusy
	}
	c.modal = m
	return nil
}

// Close dismisses the open dialog. A dialog cannot be dismissed while its
// operation is in flight.
func (c *Controller[T, F]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyLocked() {
		return ErrBusy
	}
	c.modal = NoModal{}
	return nil
}

func (c *Controller[T, F]) busyLocked() bool {
	return c.submitting || c.deletingID != ""
}

// Submit sends form through the create or update operation, depending on
// which form is open. On success the dialog closes; on failure it stays
// open with the form intact and the error is returned.
func (c *Controller[T, F]) Submit(ctx context.Context, form F) error {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	var run func(context.Context) error
	switch m := c.modal.(type) {
	case Creating:
		run = func(ctx context.Context) error { return c.ops.Create(ctx, form) }
	case Editing[T]:
		run = func(ctx context.Context) error { return c.ops.Update(ctx, m.Entity, form) }
	default:
		c.mu.Unlock()
		return ErrNoForm
	}
	c.submitting = true
	resets := c.resets
	c.mu.Unlock()

	err := run(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if resets != c.resets {
		// Reset already closed the dialog.
		return err
	}
	c.submitting = false
	if err != nil {
		return err
	}
	c.modal = NoModal{}
	c.changeLocked(false)
	return nil
}

// ConfirmDelete deletes the entity named by the open confirmation. If the
// deleted row was the only one on a page other than the first, the view
// steps back one page. A failed delete leaves the dialog open with Err set.
func (c *Controller[T, F]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	m, ok := c.modal.(ConfirmDelete[T])
	if !ok {
		c.mu.Unlock()
		return ErrNoDeleteTarget
	}
	if c.busyLocked() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.deletingID = m.Entity.EntityID()
	rowsBefore := len(c.page.Items)
	resets := c.resets
	c.mu.Unlock()

	err := c.ops.Delete(ctx, m.Entity)

	c.mu.Lock()
	defer c.mu.Unlock()
	if resets != c.resets {
		return err
	}
	c.deletingID = ""
	if err != nil {
		c.modal = ConfirmDelete[T]{Entity: m.Entity, Err: err}
		return err
	}
	c.modal = NoModal{}
	if rowsBefore-1 == 0 && c.state.PageIndex > 0 {
		c.state.PageIndex--
	}
	c.changeLocked(false)
	return nil
}
