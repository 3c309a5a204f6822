package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recert/internal/review/models"
	id "recert/pkg/domain"
)

func testDetail() *models.CampaignDetail {
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	lastActive := time.Date(2026, 7, 4, 8, 30, 0, 0, time.UTC)
	reviewed := time.Date(2026, 8, 20, 14, 45, 0, 0, time.UTC)

	campaignID := id.NewCampaignID()
	return &models.CampaignDetail{
		Campaign: models.Campaign{
			ID:      campaignID,
			Name:    `Q3 "critical" review, EMEA`,
			Status:  models.StatusInProgress,
			DueDate: &due,
		},
		Items: []*models.ReviewItem{
			{
				ID:           id.NewItemID(),
				CampaignID:   campaignID,
				UserName:     "Ada Lovelace",
				UserEmail:    "ada@example.com",
				RoleName:     "Administrator",
				Permissions:  []string{"billing,read", `users:"write"`},
				LastActiveAt: &lastActive,
				Decision:     models.DecisionApproved,
				Notes:        "still on the platform team",
				ReviewedAt:   &reviewed,
			},
			{
				ID:         id.NewItemID(),
				CampaignID: campaignID,
				UserName:   "Grace Hopper",
				UserEmail:  "grace@example.com",
				RoleName:   "Viewer",
				Decision:   models.DecisionPending,
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	out := Generate(testDetail())
	lines := strings.Split(string(out), "\n")

	assert.Equal(t, `"Review Name","Status","Due Date"`, lines[0])
	assert.Equal(t, `"Q3 ""critical"" review, EMEA","in_progress","Sep 30, 2026"`, lines[1])
	assert.Equal(t, "", lines[2], "header block and item table are separated by a blank line")
	assert.Equal(t, `"User","Email","Role","Permissions","Last Active","Decision","Notes","Reviewed At"`, lines[3])
	assert.Equal(t, `"Ada Lovelace","ada@example.com","Administrator","billing,read | users:""write""","Jul 4, 2026","approved","still on the platform team","Aug 20, 2026 14:45"`, lines[4])
	assert.Equal(t, `"Grace Hopper","grace@example.com","Viewer","","Never","pending","",""`, lines[5])
}

// TestGenerateRoundTrip parses the item table back with a stock CSV reader to
// prove embedded commas and quotes survive.
func TestGenerateRoundTrip(t *testing.T) {
	out := Generate(testDetail())

	sections := bytes.SplitN(out, []byte("\n\n"), 2)
	require.Len(t, sections, 2)

	records, err := csv.NewReader(bytes.NewReader(sections[1])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	ada := records[1]
	assert.Equal(t, "Ada Lovelace", ada[0])
	assert.Equal(t, `billing,read | users:"write"`, ada[3])
	assert.Equal(t, "approved", ada[5])

	grace := records[2]
	assert.Equal(t, "Never", grace[4])
	assert.Equal(t, "", grace[7])
}

func TestGenerateDeterminism(t *testing.T) {
	detail := testDetail()
	first := Generate(detail)
	second := Generate(detail)
	assert.Equal(t, first, second, "same snapshot must produce byte-identical output")
}

func TestGenerateNoDueDate(t *testing.T) {
	detail := testDetail()
	detail.Campaign.DueDate = nil
	out := Generate(detail)
	lines := strings.Split(string(out), "\n")
	assert.Equal(t, `"Q3 ""critical"" review, EMEA","in_progress",""`, lines[1])
}

func TestFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Q3 Review", "q3-review.csv"},
		{"  EMEA / admins  ", "emea-admins.csv"},
		{"???", "access-review.csv"},
	}
	for _, tc := range cases {
		got := Filename(models.Campaign{Name: tc.name})
		assert.Equal(t, tc.want, got)
	}
}
