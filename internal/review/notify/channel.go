// Package notify informs reviewers that a campaign needs attention. A primary
// transport channel is tried first; if it fails, the dispatcher falls back to
// a client-actionable composed message instead of silently dropping the
// request.
package notify

import (
	"context"
	"time"
)

//go:generate mockgen -source=channel.go -destination=mocks/mocks.go -package=mocks Channel

// Recipient is a resolved reviewer address.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message is the transport-agnostic notification payload.
type Message struct {
	CampaignID   string      `json:"campaign_id"`
	CampaignName string      `json:"campaign_name"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	Deadline     string      `json:"deadline"`
	Recipients   []Recipient `json:"recipients"`
}

// Channel delivers a notification over one transport. A timeout is reported
// as an ordinary error; the dispatcher treats both identically.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}
