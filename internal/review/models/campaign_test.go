package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
)

func TestNewCampaign(t *testing.T) {
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		c, err := NewCampaign(id.NewCampaignID(), "Q3 review", "desc", nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, c.Status)
		assert.Equal(t, now, c.CreatedAt)
		assert.Nil(t, c.CompletedAt)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := NewCampaign(id.NewCampaignID(), "", "", nil, nil, now)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("oversized name rejected", func(t *testing.T) {
		_, err := NewCampaign(id.NewCampaignID(), strings.Repeat("x", 201), "", nil, nil, now)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name        string
		completedAt *time.Time
		progress    Progress
		want        CampaignStatus
	}{
		{"no decisions", nil, Progress{Pending: 3, Total: 3}, StatusPending},
		{"some decisions", nil, Progress{Approved: 1, Pending: 2, Total: 3}, StatusInProgress},
		{"all decided but not completed", nil, Progress{Approved: 2, Revoked: 1, Total: 3}, StatusInProgress},
		{"terminal flag wins", &now, Progress{Approved: 3, Total: 3}, StatusCompleted},
		{"empty campaign", nil, Progress{}, StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.completedAt, tc.progress))
		})
	}
}

func TestCanComplete(t *testing.T) {
	now := time.Now()

	t.Run("all decided", func(t *testing.T) {
		c := &Campaign{}
		err := c.CanComplete(Progress{Approved: 2, Revoked: 1, Total: 3})
		require.NoError(t, err)
	})

	t.Run("pending items block with precondition_failed", func(t *testing.T) {
		c := &Campaign{}
		err := c.CanComplete(Progress{Approved: 1, Pending: 2, Total: 3})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodePreconditionFailed))
		assert.Contains(t, err.Error(), "2 item(s) still pending review")
	})

	t.Run("already completed conflicts", func(t *testing.T) {
		c := &Campaign{CompletedAt: &now}
		err := c.CanComplete(Progress{Approved: 3, Total: 3})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})
}

func TestApplyCompletion(t *testing.T) {
	now := time.Now()
	c := &Campaign{}
	c.ApplyCompletion(now)
	require.NotNil(t, c.CompletedAt)
	assert.Equal(t, now, *c.CompletedAt)
	assert.Equal(t, StatusCompleted, c.Status)
	assert.True(t, c.IsCompleted())
}

func TestProgressOf(t *testing.T) {
	items := []*ReviewItem{
		{Decision: DecisionApproved},
		{Decision: DecisionApproved},
		{Decision: DecisionRevoked},
		{Decision: DecisionPending},
	}
	assert.Equal(t, Progress{Approved: 2, Revoked: 1, Pending: 1, Total: 4}, ProgressOf(items))
	assert.Equal(t, Progress{}, ProgressOf(nil))
}

func TestCampaignClone(t *testing.T) {
	now := time.Now()
	c := &Campaign{
		ID:          id.NewCampaignID(),
		Name:        "original",
		ReviewerIDs: []id.ReviewerID{id.NewReviewerID()},
		CompletedAt: &now,
	}

	clone := c.Clone()
	clone.Name = "mutated"
	clone.ReviewerIDs[0] = id.NewReviewerID()
	*clone.CompletedAt = now.Add(time.Hour)

	assert.Equal(t, "original", c.Name)
	assert.NotEqual(t, clone.ReviewerIDs[0], c.ReviewerIDs[0])
	assert.Equal(t, now, *c.CompletedAt)
}
