// Package campaign provides storage for access-review campaigns and their
// items. The in-memory implementation backs tests and single-node deployments;
// PostgresStore is the durable variant.
package campaign

import (
	"context"
	"sync"

	"recert/internal/review/models"
	id "recert/pkg/domain"
	"recert/pkg/platform/sentinel"
)

// ListFilter narrows List results. A nil Status matches every campaign.
type ListFilter struct {
	Status *models.CampaignStatus
}

// record keeps a campaign with its items in insertion order so detail reads
// and reports are deterministic.
type record struct {
	campaign *models.Campaign
	items    map[id.ItemID]*models.ReviewItem
	order    []id.ItemID
}

// InMemory is a mutex-guarded campaign store. All mutations run under one
// lock, which makes per-item updates and the completion gate trivially atomic.
type InMemory struct {
	mu        sync.RWMutex
	campaigns map[id.CampaignID]*record
	sequence  []id.CampaignID
}

// NewInMemory creates an empty in-memory campaign store.
func NewInMemory() *InMemory {
	return &InMemory{campaigns: make(map[id.CampaignID]*record)}
}

// Create stores a campaign with its seeded items. Items keep their given
// order for the lifetime of the campaign.
func (s *InMemory) Create(ctx context.Context, c *models.Campaign, items []*models.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[c.ID]; exists {
		return sentinel.ErrInvalidState
	}

	rec := &record{
		campaign: c.Clone(),
		items:    make(map[id.ItemID]*models.ReviewItem, len(items)),
	}
	for _, item := range items {
		rec.items[item.ID] = item.Clone()
		rec.order = append(rec.order, item.ID)
	}
	s.campaigns[c.ID] = rec
	s.sequence = append(s.sequence, c.ID)
	return nil
}

// Get returns the campaign with its items, status derived from decisions.
func (s *InMemory) Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.detail(), nil
}

// List returns campaigns in creation order, optionally filtered by status.
func (s *InMemory) List(ctx context.Context, filter ListFilter) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Campaign, 0, len(s.sequence))
	for _, cid := range s.sequence {
		rec := s.campaigns[cid]
		c := rec.campaignView()
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Progress tallies item decisions for a campaign.
func (s *InMemory) Progress(ctx context.Context, campaignID id.CampaignID) (models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.campaigns[campaignID]
	if !ok {
		return models.Progress{}, sentinel.ErrNotFound
	}
	return rec.progress(), nil
}

// UpdateItem runs validate then mutate against one item while holding the
// store lock, so a decision write can never interleave with another writer or
// with the completion gate. The validate callback sees the owning campaign
// (with derived status) and the item; mutate runs only if validate passes.
func (s *InMemory) UpdateItem(
	ctx context.Context,
	campaignID id.CampaignID,
	itemID id.ItemID,
	validate func(c *models.Campaign, item *models.ReviewItem) error,
	mutate func(item *models.ReviewItem),
) (*models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	item, ok := rec.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	if err := validate(rec.campaignView(), item.Clone()); err != nil {
		return nil, err
	}
	mutate(item)
	return item.Clone(), nil
}

// Complete re-reads the authoritative progress and applies the terminal
// transition within the same critical section, closing the race where a bulk
// update lands between a progress read and the completion request.
func (s *InMemory) Complete(
	ctx context.Context,
	campaignID id.CampaignID,
	validate func(c *models.Campaign, p models.Progress) error,
	mutate func(c *models.Campaign),
) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	if err := validate(rec.campaignView(), rec.progress()); err != nil {
		return nil, err
	}
	mutate(rec.campaign)
	return rec.campaignView(), nil
}

func (r *record) progress() models.Progress {
	items := make([]*models.ReviewItem, 0, len(r.order))
	for _, iid := range r.order {
		items = append(items, r.items[iid])
	}
	return models.ProgressOf(items)
}

func (r *record) campaignView() *models.Campaign {
	c := r.campaign.Clone()
	c.Status = models.DeriveStatus(c.CompletedAt, r.progress())
	return c
}

func (r *record) detail() *models.CampaignDetail {
	items := make([]*models.ReviewItem, 0, len(r.order))
	for _, iid := range r.order {
		items = append(items, r.items[iid].Clone())
	}
	return &models.CampaignDetail{Campaign: *r.campaignView(), Items: items}
}
