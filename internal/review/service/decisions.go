package service

import (
	"context"
	"errors"

	"recert/internal/audit"
	"recert/internal/review/models"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
	"recert/pkg/platform/sentinel"
	"recert/pkg/requestcontext"
)

// ItemFailure reports why one item in a bulk call could not be updated.
type ItemFailure struct {
	ItemID id.ItemID    `json:"item_id"`
	Code   dErrors.Code `json:"code"`
}

// BulkResult is the partial outcome of a bulk decision: every item either
// lands in Updated or in Failed, and a per-item failure never aborts the rest
// of the batch.
type BulkResult struct {
	Updated []*models.ReviewItem `json:"updated"`
	Failed  []ItemFailure        `json:"failed"`
}

// ApplyDecision records a verdict on one item. Fails with not_found if the
// campaign or item is absent, conflict if the campaign already completed, and
// invalid_input for verdicts other than approved/revoked. Re-submitting the
// current verdict succeeds and refreshes ReviewedAt.
func (s *Service) ApplyDecision(ctx context.Context, campaignID id.CampaignID, itemID id.ItemID, decision models.Decision, notes string) (*models.ReviewItem, error) {
	ctx, span := s.tracer.Start(ctx, "review.ApplyDecision")
	defer span.End()

	now := requestcontext.Now(ctx)
	item, err := s.store.UpdateItem(ctx, campaignID, itemID,
		func(c *models.Campaign, item *models.ReviewItem) error {
			if c.IsCompleted() {
				return dErrors.New(dErrors.CodeConflict, "campaign is completed; decisions are frozen")
			}
			return item.CanDecide(decision)
		},
		func(item *models.ReviewItem) {
			item.ApplyDecision(decision, notes, now)
		},
	)
	if err != nil {
		return nil, wrapItemErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Timestamp:  now,
		CampaignID: campaignID.String(),
		ItemID:     itemID.String(),
		ReviewerID: requestcontext.ReviewerID(ctx),
		Action:     audit.ActionDecisionApplied,
		Decision:   decision.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementDecisionsApplied(decision.String())
	}
	return item, nil
}

// ApplyBulkDecision applies one verdict to each listed item. The batch is N
// independent atomic updates: failures are collected per item and reported,
// not treated as an engine failure. Fails up front with not_found when the
// campaign itself is absent and invalid_input for an empty selection.
func (s *Service) ApplyBulkDecision(ctx context.Context, campaignID id.CampaignID, itemIDs []id.ItemID, decision models.Decision, notes string) (*BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "review.ApplyBulkDecision")
	defer span.End()

	if len(itemIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bulk decision requires at least one item")
	}
	if !decision.IsDecided() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "decision must be approved or revoked")
	}
	if _, err := s.store.Progress(ctx, campaignID); err != nil {
		return nil, wrapCampaignErr(err)
	}

	result := &BulkResult{}
	for _, itemID := range itemIDs {
		item, err := s.ApplyDecision(ctx, campaignID, itemID, decision, notes)
		if err != nil {
			result.Failed = append(result.Failed, ItemFailure{ItemID: itemID, Code: dErrors.CodeOf(err)})
			continue
		}
		result.Updated = append(result.Updated, item)
	}

	s.logger.InfoContext(ctx, "bulk decision applied",
		"campaign_id", campaignID.String(),
		"decision", decision.String(),
		"updated", len(result.Updated),
		"failed", len(result.Failed),
	)
	return result, nil
}

// wrapItemErr translates store sentinels for item-scoped operations.
func wrapItemErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "campaign or review item not found")
	case hasDomainCode(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "review item store failure")
	}
}
