// Package service implements the campaign lifecycle manager and the decision
// reconciler. Campaign status is a derived view over item decisions; the only
// stored transition is the terminal completed flag, applied through the gated
// Complete operation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"recert/internal/audit"
	"recert/internal/review/deadline"
	"recert/internal/review/entitlement"
	reviewmetrics "recert/internal/review/metrics"
	"recert/internal/review/models"
	campaignstore "recert/internal/review/store/campaign"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
	"recert/pkg/platform/sentinel"
	"recert/pkg/requestcontext"
)

// Store is the persistence dependency owned by this service. The atomic
// callback methods (UpdateItem, Complete) run validation and mutation under
// the store's lock or row transaction so checks never act on stale state.
type Store interface {
	Create(ctx context.Context, c *models.Campaign, items []*models.ReviewItem) error
	Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignDetail, error)
	List(ctx context.Context, filter campaignstore.ListFilter) ([]*models.Campaign, error)
	Progress(ctx context.Context, campaignID id.CampaignID) (models.Progress, error)
	UpdateItem(
		ctx context.Context,
		campaignID id.CampaignID,
		itemID id.ItemID,
		validate func(c *models.Campaign, item *models.ReviewItem) error,
		mutate func(item *models.ReviewItem),
	) (*models.ReviewItem, error)
	Complete(
		ctx context.Context,
		campaignID id.CampaignID,
		validate func(c *models.Campaign, p models.Progress) error,
		mutate func(c *models.Campaign),
	) (*models.Campaign, error)
}

// AuditPublisher records the review trail. Emit failures are logged, never
// surfaced: the domain operation has already committed.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Detail is a campaign snapshot with items and derived deadline status.
type Detail struct {
	models.CampaignDetail
	Deadline deadline.Status `json:"deadline"`
}

// Service orchestrates campaign lifecycle and decision reconciliation.
type Service struct {
	store        Store
	entitlements entitlement.Source
	logger       *slog.Logger
	audit        AuditPublisher
	metrics      *reviewmetrics.Metrics
	tracer       trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *reviewmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, source entitlement.Source, opts ...Option) *Service {
	s := &Service{
		store:        store,
		entitlements: source,
		tracer:       otel.Tracer("recert/review"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateParams carries the caller-supplied campaign definition. Items come
// from the entitlement source, never from the caller directly.
type CreateParams struct {
	Name        string
	Description string
	DueDate     *time.Time
	ReviewerIDs []id.ReviewerID
	Scope       entitlement.Scope
}

// CreateCampaign snapshots the entitlement scope and stores the campaign with
// every item pending.
func (s *Service) CreateCampaign(ctx context.Context, params CreateParams) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "review.CreateCampaign")
	defer span.End()

	now := requestcontext.Now(ctx)
	c, err := models.NewCampaign(id.NewCampaignID(), strings.TrimSpace(params.Name), params.Description, params.DueDate, params.ReviewerIDs, now)
	if err != nil {
		return nil, err
	}

	seeds, err := s.entitlements.Snapshot(ctx, params.Scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "entitlement source unavailable")
	}
	if len(seeds) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entitlement scope matched no grants")
	}

	items := make([]*models.ReviewItem, 0, len(seeds))
	for _, seed := range seeds {
		item, err := models.NewReviewItem(id.NewItemID(), c.ID, seed)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := s.store.Create(ctx, c, items); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		CampaignID: c.ID.String(),
		Action:     audit.ActionCampaignCreated,
		Detail:     c.Name,
	})
	if s.metrics != nil {
		s.metrics.IncrementCampaignsCreated()
	}
	return c, nil
}

// GetCampaign returns the campaign, its items, and the derived deadline
// status for the request's clock.
func (s *Service) GetCampaign(ctx context.Context, campaignID id.CampaignID) (*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "review.GetCampaign")
	defer span.End()

	detail, err := s.store.Get(ctx, campaignID)
	if err != nil {
		return nil, wrapCampaignErr(err)
	}
	return &Detail{
		CampaignDetail: *detail,
		Deadline:       deadline.Evaluate(detail.Campaign.DueDate, requestcontext.Now(ctx)),
	}, nil
}

// Filter narrows ListCampaigns results.
type Filter struct {
	Status *models.CampaignStatus
}

// ListCampaigns returns campaigns in creation order, optionally filtered by
// derived status.
func (s *Service) ListCampaigns(ctx context.Context, filter Filter) ([]*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "review.ListCampaigns")
	defer span.End()

	campaigns, err := s.store.List(ctx, campaignstore.ListFilter{Status: filter.Status})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return campaigns, nil
}

// Progress aggregates item decisions; used by the UI and as a preview of the
// completion gate (the gate itself recounts transactionally).
func (s *Service) Progress(ctx context.Context, campaignID id.CampaignID) (models.Progress, error) {
	p, err := s.store.Progress(ctx, campaignID)
	if err != nil {
		return models.Progress{}, wrapCampaignErr(err)
	}
	return p, nil
}

// Complete transitions the campaign to its terminal state. The pending-item
// check and the transition run inside one atomic store operation, so a bulk
// decision landing mid-flight cannot slip past the gate.
func (s *Service) Complete(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "review.Complete")
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)

	c, err := s.store.Complete(ctx, campaignID,
		func(c *models.Campaign, p models.Progress) error {
			return c.CanComplete(p)
		},
		func(c *models.Campaign) {
			c.ApplyCompletion(now)
		},
	)
	if err != nil {
		return nil, wrapCampaignErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		CampaignID: c.ID.String(),
		ReviewerID: requestcontext.ReviewerID(ctx),
		Action:     audit.ActionCampaignCompleted,
	})
	if s.metrics != nil {
		s.metrics.IncrementCampaignsCompleted()
		s.metrics.ObserveComplete(start)
	}
	return c, nil
}

// emitAudit records the event, logging and swallowing sink failures.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"campaign_id", event.CampaignID,
			"error", err.Error(),
		)
	}
}

// wrapCampaignErr translates store sentinels into coded domain errors.
func wrapCampaignErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	case hasDomainCode(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "campaign store failure")
	}
}

func hasDomainCode(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}
