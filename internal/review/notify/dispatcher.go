package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"recert/internal/audit"
	"recert/internal/review/directory"
	reviewmetrics "recert/internal/review/metrics"
	"recert/internal/review/service"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
	"recert/pkg/requestcontext"
)

// CampaignReader provides the consistent campaign snapshot a notification is
// built from. Satisfied by the review service.
type CampaignReader interface {
	GetCampaign(ctx context.Context, campaignID id.CampaignID) (*service.Detail, error)
}

// ComposedMessage is the fallback artifact: a pre-filled message the caller
// can open in their own mail client when the primary channel is down.
type ComposedMessage struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	To      []string `json:"to"`
}

// Result reports how the notification went out. Exactly one of Delivered or
// Composed is meaningful: Delivered means the primary channel accepted the
// send; Composed carries the fallback message.
type Result struct {
	Delivered bool             `json:"delivered"`
	Composed  *ComposedMessage `json:"composed,omitempty"`
}

// Dispatcher resolves reviewers and sends campaign reminders. It is read-only
// with respect to campaign state and idempotent: repeated calls with the same
// inputs produce the same composed message.
type Dispatcher struct {
	campaigns CampaignReader
	directory directory.Directory
	primary   Channel
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *reviewmetrics.Metrics
	audit     service.AuditPublisher
}

type Option func(d *Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMetrics(m *reviewmetrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithAuditPublisher(publisher service.AuditPublisher) Option {
	return func(d *Dispatcher) { d.audit = publisher }
}

// WithTimeout bounds the primary channel call. A timeout counts as failure
// and triggers the fallback path.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// NewDispatcher wires the dispatcher. primary may be nil when no channel is
// configured; every send then takes the fallback path.
func NewDispatcher(campaigns CampaignReader, dir directory.Directory, primary Channel, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		campaigns: campaigns,
		directory: dir,
		primary:   primary,
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Notify informs the given reviewers (defaulting to the campaign's assigned
// set) that the campaign needs attention. Returns unavailable only when the
// primary channel failed and no reviewer email resolves.
func (d *Dispatcher) Notify(ctx context.Context, campaignID id.CampaignID, reviewerIDs []id.ReviewerID) (*Result, error) {
	detail, err := d.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	c := detail.Campaign

	if len(reviewerIDs) == 0 {
		reviewerIDs = c.ReviewerIDs
	}
	recipients := d.resolve(ctx, reviewerIDs)

	msg := Message{
		CampaignID:   c.ID.String(),
		CampaignName: c.Name,
		DueDate:      c.DueDate,
		Deadline:     detail.Deadline.Label,
		Recipients:   recipients,
	}

	if d.primary != nil {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err = d.primary.Send(sendCtx, msg)
		cancel()
		if err == nil {
			d.emitAudit(ctx, c.ID, len(recipients), "primary")
			return &Result{Delivered: true}, nil
		}
		d.logger.WarnContext(ctx, "primary notification channel failed",
			"campaign_id", c.ID.String(),
			"error", err.Error(),
		)
	}

	if len(recipients) == 0 {
		return nil, dErrors.New(dErrors.CodeUnavailable, "notification channel failed and no reviewer emails resolve")
	}

	if d.metrics != nil {
		d.metrics.IncrementNotifyFallbacks()
	}
	d.emitAudit(ctx, c.ID, len(recipients), "composed")
	return &Result{Composed: compose(msg)}, nil
}

// resolve looks reviewers up concurrently. Unresolvable reviewers are skipped
// with a warning; resolution order follows the input order regardless of
// lookup completion order, keeping the composed message deterministic.
func (d *Dispatcher) resolve(ctx context.Context, reviewerIDs []id.ReviewerID) []Recipient {
	resolved := make([]*directory.Reviewer, len(reviewerIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, rid := range reviewerIDs {
		g.Go(func() error {
			r, err := d.directory.Lookup(gctx, rid)
			if err != nil {
				d.logger.WarnContext(gctx, "reviewer lookup failed",
					"reviewer_id", rid.String(),
					"error", err.Error(),
				)
				return nil
			}
			mu.Lock()
			resolved[i] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors; failures are skips

	var recipients []Recipient
	for _, r := range resolved {
		if r == nil || r.Email == "" {
			continue
		}
		recipients = append(recipients, Recipient{Name: r.Name, Email: r.Email})
	}
	return recipients
}

func compose(msg Message) *ComposedMessage {
	to := make([]string, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		to = append(to, r.Email)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The access review %q needs your attention.\n", msg.CampaignName)
	fmt.Fprintf(&body, "Deadline: %s.\n", msg.Deadline)
	body.WriteString("Please sign in and record a decision for each outstanding item.\n")

	return &ComposedMessage{
		Subject: fmt.Sprintf("Access review reminder: %s", msg.CampaignName),
		Body:    body.String(),
		To:      to,
	}
}

func (d *Dispatcher) emitAudit(ctx context.Context, campaignID id.CampaignID, recipients int, path string) {
	if d.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		CampaignID: campaignID.String(),
		Action:     audit.ActionReviewersNotified,
		Detail:     fmt.Sprintf("%d recipient(s) via %s", recipients, path),
	}
	if err := d.audit.Emit(ctx, event); err != nil {
		d.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"campaign_id", event.CampaignID,
			"error", err.Error(),
		)
	}
}
