package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "recert/pkg/domain"
	"recert/pkg/platform/sentinel"
)

func TestInMemoryLookup(t *testing.T) {
	dir := NewInMemory()
	reviewerID := id.NewReviewerID()
	dir.Add(Reviewer{ID: reviewerID, Name: "Ada Lovelace", Email: "ada@example.com"})

	r, err := dir.Lookup(context.Background(), reviewerID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", r.Name)
	assert.Equal(t, "ada@example.com", r.Email)
}

func TestInMemoryLookupUnknown(t *testing.T) {
	dir := NewInMemory()
	_, err := dir.Lookup(context.Background(), id.NewReviewerID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryAddReplaces(t *testing.T) {
	dir := NewInMemory()
	reviewerID := id.NewReviewerID()
	dir.Add(Reviewer{ID: reviewerID, Email: "old@example.com"})
	dir.Add(Reviewer{ID: reviewerID, Email: "new@example.com"})

	r, err := dir.Lookup(context.Background(), reviewerID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", r.Email)
}
