package models

import (
	"time"

	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
)

// ReviewItem is one user-role grant under review within a campaign.
//
// Invariants:
//   - ReviewedAt is set if and only if Decision != pending
//   - Identity fields (user, role, permissions) are immutable after creation;
//     only Decision, Notes, and ReviewedAt change
//   - Items are frozen once the owning campaign completes
type ReviewItem struct {
	ID           id.ItemID     `json:"id"`
	CampaignID   id.CampaignID `json:"campaign_id"`
	UserID       string        `json:"user_id"`
	UserName     string        `json:"user_name"`
	UserEmail    string        `json:"user_email"`
	RoleID       string        `json:"role_id"`
	RoleName     string        `json:"role_name"`
	Permissions  []string      `json:"permissions"`
	LastActiveAt *time.Time    `json:"last_active_at,omitempty"`
	Decision     Decision      `json:"decision"`
	Notes        string        `json:"notes,omitempty"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
}

// ItemSeed is the entitlement snapshot row a campaign is created from.
type ItemSeed struct {
	UserID       string
	UserName     string
	UserEmail    string
	RoleID       string
	RoleName     string
	Permissions  []string
	LastActiveAt *time.Time
}

// NewReviewItem builds a pending item from an entitlement seed.
func NewReviewItem(itemID id.ItemID, campaignID id.CampaignID, seed ItemSeed) (*ReviewItem, error) {
	if seed.UserID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item user id cannot be empty")
	}
	if seed.RoleID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item role id cannot be empty")
	}
	return &ReviewItem{
		ID:           itemID,
		CampaignID:   campaignID,
		UserID:       seed.UserID,
		UserName:     seed.UserName,
		UserEmail:    seed.UserEmail,
		RoleID:       seed.RoleID,
		RoleName:     seed.RoleName,
		Permissions:  append([]string(nil), seed.Permissions...),
		LastActiveAt: seed.LastActiveAt,
		Decision:     DecisionPending,
	}, nil
}

// CanDecide checks whether a decision may be recorded against this item.
// Use with ApplyDecision in Execute callbacks so validation and mutation run
// under the same lock.
func (i *ReviewItem) CanDecide(decision Decision) error {
	if !decision.IsDecided() {
		return dErrors.New(dErrors.CodeInvalidInput, "decision must be approved or revoked")
	}
	return nil
}

// ApplyDecision records a verdict. ReviewedAt is refreshed on every apply,
// including re-submission of the current value; callers relying on the first
// review time should read the audit trail instead.
func (i *ReviewItem) ApplyDecision(decision Decision, notes string, now time.Time) {
	i.Decision = decision
	i.Notes = notes
	i.ReviewedAt = &now
}

// Clone returns a deep copy so stores never hand out shared mutable state.
func (i *ReviewItem) Clone() *ReviewItem {
	cp := *i
	cp.Permissions = append([]string(nil), i.Permissions...)
	if i.LastActiveAt != nil {
		t := *i.LastActiveAt
		cp.LastActiveAt = &t
	}
	if i.ReviewedAt != nil {
		t := *i.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}
