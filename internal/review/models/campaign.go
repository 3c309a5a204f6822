package models

import (
	"time"

	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
)

// CampaignStatus is a derived view over item decisions. Only the completed
// terminal state is stored (as CompletedAt); pending and in_progress are
// recomputed on every read so campaign status can never drift from the items
// it summarizes.
type CampaignStatus string

const (
	StatusPending    CampaignStatus = "pending"
	StatusInProgress CampaignStatus = "in_progress"
	StatusCompleted  CampaignStatus = "completed"
)

// ParseCampaignStatus validates a status filter value.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	switch CampaignStatus(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return CampaignStatus(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown campaign status %q", s)
	}
}

// Campaign is one access-review run over a fixed snapshot of user/role grants.
//
// Invariants:
//   - CompletedAt is set if and only if Status == completed
//   - Status == completed implies every owned item is decided
//   - Status transitions never leave completed
type Campaign struct {
	ID          id.CampaignID   `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	ReviewerIDs []id.ReviewerID `json:"reviewer_ids"`
	Status      CampaignStatus  `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// CampaignDetail pairs a campaign with its owned items for detail reads and
// report generation.
type CampaignDetail struct {
	Campaign Campaign      `json:"campaign"`
	Items    []*ReviewItem `json:"items"`
}

// Progress aggregates item decisions for the UI and the completion gate.
type Progress struct {
	Approved int `json:"approved"`
	Revoked  int `json:"revoked"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// ProgressOf tallies decisions over a set of items.
func ProgressOf(items []*ReviewItem) Progress {
	p := Progress{Total: len(items)}
	for _, item := range items {
		switch item.Decision {
		case DecisionApproved:
			p.Approved++
		case DecisionRevoked:
			p.Revoked++
		default:
			p.Pending++
		}
	}
	return p
}

// DeriveStatus computes campaign status from the terminal flag and item
// decisions. Stores call this on every read rather than persisting a status
// column that could go stale.
func DeriveStatus(completedAt *time.Time, p Progress) CampaignStatus {
	switch {
	case completedAt != nil:
		return StatusCompleted
	case p.Approved+p.Revoked > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// NewCampaign builds a campaign shell; items are attached by the store at
// creation time.
func NewCampaign(campaignID id.CampaignID, name, description string, dueDate *time.Time, reviewerIDs []id.ReviewerID, now time.Time) (*Campaign, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "campaign name cannot be empty")
	}
	if len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "campaign name must be 200 characters or less")
	}
	return &Campaign{
		ID:          campaignID,
		Name:        name,
		Description: description,
		DueDate:     dueDate,
		ReviewerIDs: append([]id.ReviewerID(nil), reviewerIDs...),
		Status:      StatusPending,
		CreatedAt:   now,
	}, nil
}

// IsCompleted reports whether the campaign reached its terminal state.
func (c *Campaign) IsCompleted() bool { return c.CompletedAt != nil }

// CanComplete checks the completion gate against a progress snapshot.
// The store must re-run this check within the same atomic unit that sets the
// terminal flag; a progress value read moments earlier is not authoritative.
func (c *Campaign) CanComplete(p Progress) error {
	if c.IsCompleted() {
		return dErrors.New(dErrors.CodeConflict, "campaign is already completed")
	}
	if p.Pending > 0 {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "%d item(s) still pending review", p.Pending)
	}
	return nil
}

// ApplyCompletion sets the terminal flag. Call CanComplete first, under the
// same lock or transaction.
func (c *Campaign) ApplyCompletion(now time.Time) {
	c.CompletedAt = &now
	c.Status = StatusCompleted
}

// Clone returns a deep copy so stores never hand out shared mutable state.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	cp.ReviewerIDs = append([]id.ReviewerID(nil), c.ReviewerIDs...)
	if c.DueDate != nil {
		t := *c.DueDate
		cp.DueDate = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
