// Package progress keeps a caller's visible checklist in step with the
// progress API, flipping steps optimistically and reverting failed writes.
package progress

import (
	"context"
	"sort"
	"sync"

	"github.com/brokerkit/agent-portal/internal/models"
)

// ToggleState tracks one optimistic flip
type ToggleState string

const (
	ToggleNone       ToggleState = ""
	TogglePending    ToggleState = "pending"
	ToggleCommitted  ToggleState = "committed"
	ToggleRolledBack ToggleState = "rolled_back"
)

// Store is the persistence the checklist writes through
type Store interface {
	Load(ctx context.Context, userEmail, pageType string) ([]models.StepState, error)
	Toggle(ctx context.Context, userEmail, pageType, stepID string) (bool, error)
}

type stepView struct {
	completed bool
	state     ToggleState
	// seq increases on every local flip so a stale write result cannot
	// overwrite a newer one
	seq uint64
}

// Checklist is the visible completion state of one page for one user
type Checklist struct {
	store    Store
	pageType string

	mu    sync.Mutex
	email string
	steps map[string]*stepView
}

// NewChecklist creates an empty checklist for pageType
func NewChecklist(store Store, pageType string) *Checklist {
	return &Checklist{
		store:    store,
		pageType: pageType,
		steps:    make(map[string]*stepView),
	}
}

// SetUser switches the checklist to email and reloads it. Setting the same
// user again does nothing.
func (c *Checklist) SetUser(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	c.mu.Lock()
	if email == c.email {
		c.mu.Unlock()
		return nil
	}
	c.email = email
	c.steps = make(map[string]*stepView)
	c.mu.Unlock()

	return c.Load(ctx)
}

// Load replaces the visible state with the stored one. Without a user the
// checklist stays empty and no error is returned.
func (c *Checklist) Load(ctx context.Context) error {
	c.mu.Lock()
	email := c.email
	c.mu.Unlock()

	if email == "" {
		return nil
	}

	steps, err := c.store.Load(ctx, email, c.pageType)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.email != email {
		// user changed while loading
		return nil
	}
	fresh := make(map[string]*stepView, len(steps))
	for _, step := range steps {
		fresh[step.StepID] = &stepView{completed: step.Completed}
	}
	// keep flips that are still in flight
	for id, view := range c.steps {
		if view.state == TogglePending {
			fresh[id] = view
		}
	}
	c.steps = fresh
	return nil
}

// Toggle flips stepID right away, then writes it through the store. On
// failure the step reverts to its previous value and the error is returned.
func (c *Checklist) Toggle(ctx context.Context, stepID string) (bool, error) {
	c.mu.Lock()
	email := c.email
	if email == "" {
		c.mu.Unlock()
		return false, models.ErrNoIdentity
	}
	view := c.view(stepID)
	previous := view.completed
	view.completed = !previous
	view.state = TogglePending
	view.seq++
	seq := view.seq
	c.mu.Unlock()

	completed, err := c.store.Toggle(ctx, email, c.pageType, stepID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.email != email || view.seq != seq {
		return completed, err
	}
	if err != nil {
		view.completed = previous
		view.state = ToggleRolledBack
		return previous, err
	}
	view.completed = completed
	view.state = ToggleCommitted
	return completed, nil
}

// view returns the step, creating it unchecked. Callers hold c.mu.
func (c *Checklist) view(stepID string) *stepView {
	view, ok := c.steps[stepID]
	if !ok {
		view = &stepView{}
		c.steps[stepID] = view
	}
	return view
}

// Completed reports the visible state of stepID
func (c *Checklist) Completed(stepID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if view, ok := c.steps[stepID]; ok {
		return view.completed
	}
	return false
}

// State reports the last optimistic transition of stepID
func (c *Checklist) State(stepID string) ToggleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if view, ok := c.steps[stepID]; ok {
		return view.state
	}
	return ToggleNone
}

// Steps returns the visible state sorted by step id
func (c *Checklist) Steps() []models.StepState {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := make([]models.StepState, 0, len(c.steps))
	for id, view := range c.steps {
		steps = append(steps, models.StepState{StepID: id, Completed: view.completed})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepID < steps[j].StepID })
	return steps
}

// User returns the email the checklist belongs to
func (c *Checklist) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}
