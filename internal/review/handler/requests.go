package handler

import (
	"strings"
	"time"

	"recert/internal/review/entitlement"
	"recert/internal/review/models"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
)

// CreateCampaignRequest is the HTTP request body for POST /access-reviews.
type CreateCampaignRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DueDate     *time.Time        `json:"due_date"`
	ReviewerIDs []string          `json:"reviewer_ids"`
	Scope       entitlement.Scope `json:"scope"`

	// Parsed values (populated by Validate)
	parsedReviewerIDs []id.ReviewerID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCampaignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeInvalidInput, "name must be at most 200 characters")
	}

	r.parsedReviewerIDs = make([]id.ReviewerID, 0, len(r.ReviewerIDs))
	for _, raw := range r.ReviewerIDs {
		reviewerID, err := id.ParseReviewerID(raw)
		if err != nil {
			return err
		}
		r.parsedReviewerIDs = append(r.parsedReviewerIDs, reviewerID)
	}

	return nil
}

// ParsedReviewerIDs returns the validated reviewer IDs.
func (r *CreateCampaignRequest) ParsedReviewerIDs() []id.ReviewerID {
	return r.parsedReviewerIDs
}

// DecisionRequest is the HTTP request body for PATCH
// /access-reviews/{campaignID}/items/{itemID}.
type DecisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`

	parsedDecision models.Decision
}

// Validate validates and parses the request.
func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	decision, err := models.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = decision

	if len(r.Notes) > 2000 {
		return dErrors.New(dErrors.CodeInvalidInput, "notes must be at most 2000 characters")
	}

	return nil
}

// ParsedDecision returns the validated decision.
func (r *DecisionRequest) ParsedDecision() models.Decision {
	return r.parsedDecision
}

// BulkDecisionRequest is the HTTP request body for PATCH
// /access-reviews/{campaignID}/items.
type BulkDecisionRequest struct {
	ItemIDs  []string `json:"item_ids"`
	Decision string   `json:"decision"`
	Notes    string   `json:"notes"`

	parsedItemIDs  []id.ItemID
	parsedDecision models.Decision
}

// Validate validates and parses the request.
func (r *BulkDecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	if len(r.ItemIDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "item_ids cannot be empty")
	}

	decision, err := models.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = decision

	if len(r.Notes) > 2000 {
		return dErrors.New(dErrors.CodeInvalidInput, "notes must be at most 2000 characters")
	}

	r.parsedItemIDs = make([]id.ItemID, 0, len(r.ItemIDs))
	for _, raw := range r.ItemIDs {
		itemID, err := id.ParseItemID(raw)
		if err != nil {
			return err
		}
		r.parsedItemIDs = append(r.parsedItemIDs, itemID)
	}

	return nil
}

// ParsedItemIDs returns the validated item IDs.
func (r *BulkDecisionRequest) ParsedItemIDs() []id.ItemID {
	return r.parsedItemIDs
}

// ParsedDecision returns the validated decision.
func (r *BulkDecisionRequest) ParsedDecision() models.Decision {
	return r.parsedDecision
}

// NotifyRequest is the HTTP request body for POST
// /access-reviews/{campaignID}/notify. An empty reviewer list means "notify
// the campaign's assigned reviewers".
type NotifyRequest struct {
	ReviewerIDs []string `json:"reviewer_ids"`

	parsedReviewerIDs []id.ReviewerID
}

// Validate validates and parses the request.
func (r *NotifyRequest) Validate() error {
	if r == nil {
		return nil
	}

	r.parsedReviewerIDs = make([]id.ReviewerID, 0, len(r.ReviewerIDs))
	for _, raw := range r.ReviewerIDs {
		reviewerID, err := id.ParseReviewerID(raw)
		if err != nil {
			return err
		}
		r.parsedReviewerIDs = append(r.parsedReviewerIDs, reviewerID)
	}

	return nil
}

// ParsedReviewerIDs returns the validated reviewer IDs.
func (r *NotifyRequest) ParsedReviewerIDs() []id.ReviewerID {
	return r.parsedReviewerIDs
}
