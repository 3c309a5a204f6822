// Package directory resolves reviewer identifiers to contact details. The
// engine does not own reviewers; it only looks them up when dispatching
// notifications.
package directory

import (
	"context"
	"sync"

	id "recert/pkg/domain"
	"recert/pkg/platform/sentinel"
)

// Reviewer is the external person assigned to decide items.
type Reviewer struct {
	ID    id.ReviewerID `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
}

// Directory looks reviewers up by id. Implementations return
// sentinel.ErrNotFound for unknown reviewers.
type Directory interface {
	Lookup(ctx context.Context, reviewerID id.ReviewerID) (*Reviewer, error)
}

// InMemory is a map-backed directory for development and tests.
type InMemory struct {
	mu        sync.RWMutex
	reviewers map[id.ReviewerID]Reviewer
}

func NewInMemory() *InMemory {
	return &InMemory{reviewers: make(map[id.ReviewerID]Reviewer)}
}

// Add registers or replaces a reviewer.
func (d *InMemory) Add(r Reviewer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reviewers[r.ID] = r
}

func (d *InMemory) Lookup(ctx context.Context, reviewerID id.ReviewerID) (*Reviewer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.reviewers[reviewerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}
