package handler

import (
	"time"

	"recert/internal/review/models"
	"recert/internal/review/service"
)

// CampaignResponse is the HTTP shape of a campaign summary.
type CampaignResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReviewerIDs []string   `json:"reviewer_ids"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CampaignDetailResponse adds owned items and derived deadline urgency.
type CampaignDetailResponse struct {
	CampaignResponse
	Items    []ItemResponse   `json:"items"`
	Progress ProgressResponse `json:"progress"`
	Deadline DeadlineResponse `json:"deadline"`
}

// ItemResponse is the HTTP shape of a review item.
type ItemResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	UserEmail    string     `json:"user_email"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name"`
	Permissions  []string   `json:"permissions"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	Decision     string     `json:"decision"`
	Notes        string     `json:"notes,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// ProgressResponse is the decision tally for a campaign.
type ProgressResponse struct {
	Approved int `json:"approved"`
	Revoked  int `json:"revoked"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// DeadlineResponse is the derived due-date urgency.
type DeadlineResponse struct {
	Label   string `json:"label"`
	Overdue bool   `json:"overdue"`
}

// BulkDecisionResponse reports the partial outcome of a bulk decision.
type BulkDecisionResponse struct {
	Updated []ItemResponse        `json:"updated"`
	Failed  []ItemFailureResponse `json:"failed"`
}

// ItemFailureResponse is one item that could not be updated in a bulk call.
type ItemFailureResponse struct {
	ItemID string `json:"item_id"`
	Code   string `json:"code"`
}

// NotifyResponse reports how a reminder went out.
type NotifyResponse struct {
	Delivered bool             `json:"delivered"`
	Composed  *ComposedMessage `json:"composed,omitempty"`
}

// ComposedMessage is the fallback message callers can send themselves.
type ComposedMessage struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	To      []string `json:"to"`
}

// FromCampaign converts a domain campaign to its HTTP shape.
func FromCampaign(c *models.Campaign) CampaignResponse {
	reviewerIDs := make([]string, 0, len(c.ReviewerIDs))
	for _, r := range c.ReviewerIDs {
		reviewerIDs = append(reviewerIDs, r.String())
	}
	return CampaignResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		DueDate:     c.DueDate,
		ReviewerIDs: reviewerIDs,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		CompletedAt: c.CompletedAt,
	}
}

// FromDetail converts a campaign detail to its HTTP shape.
func FromDetail(d *service.Detail) CampaignDetailResponse {
	items := make([]ItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, FromItem(item))
	}
	p := models.ProgressOf(d.Items)
	return CampaignDetailResponse{
		CampaignResponse: FromCampaign(&d.Campaign),
		Items:            items,
		Progress:         ProgressResponse(p),
		Deadline: DeadlineResponse{
			Label:   d.Deadline.Label,
			Overdue: d.Deadline.Overdue,
		},
	}
}

// FromItem converts a review item to its HTTP shape.
func FromItem(item *models.ReviewItem) ItemResponse {
	return ItemResponse{
		ID:           item.ID.String(),
		UserID:       item.UserID,
		UserName:     item.UserName,
		UserEmail:    item.UserEmail,
		RoleID:       item.RoleID,
		RoleName:     item.RoleName,
		Permissions:  item.Permissions,
		LastActiveAt: item.LastActiveAt,
		Decision:     string(item.Decision),
		Notes:        item.Notes,
		ReviewedAt:   item.ReviewedAt,
	}
}

// FromBulkResult converts a bulk outcome to its HTTP shape.
func FromBulkResult(result *service.BulkResult) BulkDecisionResponse {
	resp := BulkDecisionResponse{
		Updated: make([]ItemResponse, 0, len(result.Updated)),
		Failed:  make([]ItemFailureResponse, 0, len(result.Failed)),
	}
	for _, item := range result.Updated {
		resp.Updated = append(resp.Updated, FromItem(item))
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, ItemFailureResponse{
			ItemID: f.ItemID.String(),
			Code:   string(f.Code),
		})
	}
	return resp
}
