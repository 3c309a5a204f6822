// Package entitlement defines the port to the external directory/entitlement
// system that supplies the user/role grants a campaign reviews. The engine
// never discovers grants itself; it consumes a snapshot at campaign creation.
package entitlement

import (
	"context"
	"slices"
	"sync"

	"recert/internal/review/models"
)

// Scope describes which grants an access review covers. Empty fields match
// everything; the external source interprets the descriptor.
type Scope struct {
	SiteIDs []string `json:"site_ids,omitempty"`
	RoleIDs []string `json:"role_ids,omitempty"`
}

// Source supplies the entitlement snapshot a campaign is seeded from.
type Source interface {
	Snapshot(ctx context.Context, scope Scope) ([]models.ItemSeed, error)
}

// Static serves a fixed grant set, filtered by scope. Used in development and
// tests; production wires the directory integration instead.
type Static struct {
	mu     sync.RWMutex
	grants []grant
}

type grant struct {
	seed   models.ItemSeed
	siteID string
}

// NewStatic creates an empty static source.
func NewStatic() *Static {
	return &Static{}
}

// Add registers a grant under a site.
func (s *Static) Add(siteID string, seed models.ItemSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = append(s.grants, grant{seed: seed, siteID: siteID})
}

// Snapshot returns the grants matching the scope, in registration order.
func (s *Static) Snapshot(ctx context.Context, scope Scope) ([]models.ItemSeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ItemSeed
	for _, g := range s.grants {
		if len(scope.SiteIDs) > 0 && !slices.Contains(scope.SiteIDs, g.siteID) {
			continue
		}
		if len(scope.RoleIDs) > 0 && !slices.Contains(scope.RoleIDs, g.seed.RoleID) {
			continue
		}
		out = append(out, g.seed)
	}
	return out, nil
}
