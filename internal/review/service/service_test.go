package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recert/internal/audit"
	"recert/internal/review/entitlement"
	"recert/internal/review/models"
	"recert/internal/review/store/campaign"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
	"recert/pkg/requestcontext"
	"recert/pkg/testutil"
)

func newTestService(t *testing.T, seeds ...models.ItemSeed) (*Service, *audit.Publisher) {
	t.Helper()

	source := entitlement.NewStatic()
	if len(seeds) == 0 {
		seeds = []models.ItemSeed{
			{UserID: "u-1", UserName: "Ada Lovelace", UserEmail: "ada@example.com", RoleID: "r-1", RoleName: "Admin"},
			{UserID: "u-2", UserName: "Grace Hopper", UserEmail: "grace@example.com", RoleID: "r-2", RoleName: "Viewer"},
			{UserID: "u-3", UserName: "Mary Shelley", UserEmail: "mary@example.com", RoleID: "r-3", RoleName: "Editor"},
		}
	}
	for _, seed := range seeds {
		source.Add("site-a", seed)
	}

	publisher := audit.NewPublisher(audit.NewMemoryStore())
	svc := New(campaign.NewInMemory(), source,
		WithLogger(testutil.NewTestLogger()),
		WithAuditPublisher(publisher),
	)
	return svc, publisher
}

func createCampaign(t *testing.T, svc *Service) *models.Campaign {
	t.Helper()
	c, err := svc.CreateCampaign(context.Background(), CreateParams{
		Name:  "Quarterly review",
		Scope: entitlement.Scope{SiteIDs: []string{"site-a"}},
	})
	require.NoError(t, err)
	return c
}

func itemIDs(t *testing.T, svc *Service, campaignID id.CampaignID) []id.ItemID {
	t.Helper()
	detail, err := svc.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	ids := make([]id.ItemID, 0, len(detail.Items))
	for _, item := range detail.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestCreateCampaign(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()

	c := createCampaign(t, svc)
	assert.Equal(t, models.StatusPending, c.Status)

	detail, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 3)
	for _, item := range detail.Items {
		assert.Equal(t, models.DecisionPending, item.Decision)
		assert.Nil(t, item.ReviewedAt)
	}

	events, err := publisher.List(ctx, c.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCampaignCreated, events[0].Action)

	t.Run("empty scope snapshot is rejected", func(t *testing.T) {
		_, err := svc.CreateCampaign(ctx, CreateParams{
			Name:  "Nothing to review",
			Scope: entitlement.Scope{SiteIDs: []string{"nowhere"}},
		})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		_, err := svc.CreateCampaign(ctx, CreateParams{
			Name:  "   ",
			Scope: entitlement.Scope{SiteIDs: []string{"site-a"}},
		})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func TestProgressTracksDecisions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := createCampaign(t, svc)
	ids := itemIDs(t, svc, c.ID)

	p, err := svc.Progress(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Pending: 3, Total: 3}, p)

	_, err = svc.ApplyDecision(ctx, c.ID, ids[0], models.DecisionApproved, "")
	require.NoError(t, err)
	_, err = svc.ApplyDecision(ctx, c.ID, ids[1], models.DecisionRevoked, "contractor left")
	require.NoError(t, err)

	p, err = svc.Progress(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Approved: 1, Revoked: 1, Pending: 1, Total: 3}, p)

	detail, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, detail.Campaign.Status)
}

func TestApplyDecision(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	c := createCampaign(t, svc)
	ids := itemIDs(t, svc, c.ID)

	t.Run("records verdict, notes, and review time", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		item, err := svc.ApplyDecision(requestcontext.WithTime(ctx, now), c.ID, ids[0], models.DecisionApproved, "still needed")
		require.NoError(t, err)
		assert.Equal(t, models.DecisionApproved, item.Decision)
		assert.Equal(t, "still needed", item.Notes)
		require.NotNil(t, item.ReviewedAt)
		assert.Equal(t, now, *item.ReviewedAt)

		events, err := publisher.List(ctx, c.ID.String())
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, audit.ActionDecisionApplied, last.Action)
		assert.Equal(t, "approved", last.Decision)
	})

	t.Run("re-applying the same verdict is idempotent and refreshes ReviewedAt", func(t *testing.T) {
		later := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
		item, err := svc.ApplyDecision(requestcontext.WithTime(ctx, later), c.ID, ids[0], models.DecisionApproved, "still needed")
		require.NoError(t, err)
		assert.Equal(t, models.DecisionApproved, item.Decision)
		require.NotNil(t, item.ReviewedAt)
		assert.Equal(t, later, *item.ReviewedAt)
	})

	t.Run("changing a verdict before completion is allowed", func(t *testing.T) {
		item, err := svc.ApplyDecision(ctx, c.ID, ids[0], models.DecisionRevoked, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, models.DecisionRevoked, item.Decision)
	})

	t.Run("unknown item maps to not_found", func(t *testing.T) {
		_, err := svc.ApplyDecision(ctx, c.ID, id.NewItemID(), models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("unknown campaign maps to not_found", func(t *testing.T) {
		_, err := svc.ApplyDecision(ctx, id.NewCampaignID(), ids[0], models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func TestApplyBulkDecision(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := createCampaign(t, svc)
	ids := itemIDs(t, svc, c.ID)

	t.Run("partial failure does not abort the batch", func(t *testing.T) {
		ghost := id.NewItemID()
		result, err := svc.ApplyBulkDecision(ctx, c.ID, []id.ItemID{ids[0], ghost, ids[1]}, models.DecisionApproved, "")
		require.NoError(t, err)
		assert.Len(t, result.Updated, 2)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, ghost, result.Failed[0].ItemID)
		assert.Equal(t, dErrors.CodeNotFound, result.Failed[0].Code)
	})

	t.Run("empty selection is invalid_input", func(t *testing.T) {
		_, err := svc.ApplyBulkDecision(ctx, c.ID, nil, models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("missing campaign short-circuits with not_found", func(t *testing.T) {
		_, err := svc.ApplyBulkDecision(ctx, id.NewCampaignID(), ids, models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func TestComplete(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	c := createCampaign(t, svc)
	ids := itemIDs(t, svc, c.ID)

	t.Run("pending items gate completion", func(t *testing.T) {
		_, err := svc.Complete(ctx, c.ID)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodePreconditionFailed))
	})

	result, err := svc.ApplyBulkDecision(ctx, c.ID, ids, models.DecisionApproved, "")
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	completed, err := svc.Complete(requestcontext.WithTime(ctx, now), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, now, *completed.CompletedAt)

	events, err := publisher.List(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, audit.ActionCampaignCompleted, events[len(events)-1].Action)

	t.Run("completion is terminal", func(t *testing.T) {
		_, err := svc.Complete(ctx, c.ID)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("decisions are frozen after completion", func(t *testing.T) {
		_, err := svc.ApplyDecision(ctx, c.ID, ids[0], models.DecisionRevoked, "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("completed campaign remains readable for reporting", func(t *testing.T) {
		detail, err := svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, detail.Campaign.Status)
		assert.Len(t, detail.Items, 3)
	})
}

func TestGetCampaignDeadline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	c, err := svc.CreateCampaign(ctx, CreateParams{
		Name:    "Deadline check",
		DueDate: &due,
		Scope:   entitlement.Scope{SiteIDs: []string{"site-a"}},
	})
	require.NoError(t, err)

	now := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	detail, err := svc.GetCampaign(requestcontext.WithTime(ctx, now), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2 days remaining", detail.Deadline.Label)
	assert.False(t, detail.Deadline.Overdue)

	overdueNow := time.Date(2026, 9, 10, 0, 0, 1, 0, time.UTC)
	detail, err = svc.GetCampaign(requestcontext.WithTime(ctx, overdueNow), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 day overdue", detail.Deadline.Label)
	assert.True(t, detail.Deadline.Overdue)
}

func TestListCampaigns(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := createCampaign(t, svc)
	second := createCampaign(t, svc)

	all, err := svc.ListCampaigns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	ids := itemIDs(t, svc, second.ID)
	_, err = svc.ApplyDecision(ctx, second.ID, ids[0], models.DecisionApproved, "")
	require.NoError(t, err)

	inProgress := models.StatusInProgress
	filtered, err := svc.ListCampaigns(ctx, Filter{Status: &inProgress})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)
}
