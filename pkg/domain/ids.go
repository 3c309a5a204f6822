// Package domain holds shared domain primitives: typed identifiers parsed and
// validated at trust boundaries so campaign, item, and reviewer IDs cannot be
// swapped by accident.
package domain

import (
	"github.com/google/uuid"

	dErrors "recert/pkg/domain-errors"
)

// Typed UUIDs for the access review engine. Distinct types make cross-ID
// assignment a compile error.
type (
	CampaignID uuid.UUID
	ItemID     uuid.UUID
	ReviewerID uuid.UUID
)

func (id CampaignID) String() string { return uuid.UUID(id).String() }
func (id ItemID) String() string     { return uuid.UUID(id).String() }
func (id ReviewerID) String() string { return uuid.UUID(id).String() }

func (id CampaignID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ReviewerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewCampaignID generates a fresh campaign identifier.
func NewCampaignID() CampaignID { return CampaignID(uuid.New()) }

// NewItemID generates a fresh review item identifier.
func NewItemID() ItemID { return ItemID(uuid.New()) }

// NewReviewerID generates a fresh reviewer identifier.
func NewReviewerID() ReviewerID { return ReviewerID(uuid.New()) }

// ParseCampaignID validates and converts a string into a CampaignID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parseUUID(s, "campaign id")
	if err != nil {
		return CampaignID{}, err
	}
	return CampaignID(u), nil
}

// ParseItemID validates and converts a string into an ItemID.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	if err != nil {
		return ItemID{}, err
	}
	return ItemID(u), nil
}

// ParseReviewerID validates and converts a string into a ReviewerID.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s, "reviewer id")
	if err != nil {
		return ReviewerID{}, err
	}
	return ReviewerID(u), nil
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return u, nil
}
