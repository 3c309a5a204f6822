package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Emit(t *testing.T) {
	publisher := NewPublisher(NewMemoryStore())
	ctx := context.Background()

	err := publisher.Emit(ctx, Event{
		CampaignID: "c-1",
		Action:     ActionCampaignCreated,
	})
	require.NoError(t, err)

	events, err := publisher.List(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionCampaignCreated, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "emit should stamp a timestamp")
}

func TestPublisher_List_FiltersByCampaign(t *testing.T) {
	publisher := NewPublisher(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, publisher.Emit(ctx, Event{CampaignID: "c-1", Action: ActionCampaignCreated}))
	require.NoError(t, publisher.Emit(ctx, Event{CampaignID: "c-2", Action: ActionCampaignCreated}))
	require.NoError(t, publisher.Emit(ctx, Event{CampaignID: "c-1", Action: ActionCampaignCompleted}))

	events, err := publisher.List(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionCampaignCompleted, events[1].Action)
}

func TestAsyncPublisher_WorkerDrains(t *testing.T) {
	store := NewMemoryStore()
	publisher, worker := NewAsync(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	require.NoError(t, publisher.Emit(ctx, Event{CampaignID: "c-1", Action: ActionDecisionApplied}))
	require.NoError(t, publisher.Emit(ctx, Event{CampaignID: "c-1", Action: ActionDecisionApplied}))

	require.Eventually(t, func() bool {
		events, err := store.ListByCampaign(ctx, "c-1")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestAsyncPublisher_EmitHonorsContext(t *testing.T) {
	publisher, _ := NewAsync(NewMemoryStore(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Emit(ctx, Event{CampaignID: "c-1"})
	require.ErrorIs(t, err, context.Canceled)
}
