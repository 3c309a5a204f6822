package audit

import "time"

// Event is emitted from domain logic to capture key review actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	CampaignID string    `json:"campaign_id"`
	ItemID     string    `json:"item_id,omitempty"`
	ReviewerID string    `json:"reviewer_id,omitempty"`
	Action     string    `json:"action"`
	Decision   string    `json:"decision,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Actions recorded by the review engine.
const (
	ActionCampaignCreated   = "campaign.created"
	ActionDecisionApplied   = "decision.applied"
	ActionCampaignCompleted = "campaign.completed"
	ActionReviewersNotified = "reviewers.notified"
)
