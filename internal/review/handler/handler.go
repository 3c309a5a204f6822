// Package handler wires the access-review HTTP surface to the review service.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"recert/internal/platform/middleware"
	"recert/internal/review/models"
	"recert/internal/review/notify"
	"recert/internal/review/report"
	"recert/internal/review/service"
	id "recert/pkg/domain"
	dErrors "recert/pkg/domain-errors"
	"recert/pkg/platform/httputil"
	"recert/pkg/requestcontext"
)

// Service defines the interface for campaign operations.
type Service interface {
	CreateCampaign(ctx context.Context, params service.CreateParams) (*models.Campaign, error)
	GetCampaign(ctx context.Context, campaignID id.CampaignID) (*service.Detail, error)
	ListCampaigns(ctx context.Context, filter service.Filter) ([]*models.Campaign, error)
	Progress(ctx context.Context, campaignID id.CampaignID) (models.Progress, error)
	ApplyDecision(ctx context.Context, campaignID id.CampaignID, itemID id.ItemID, decision models.Decision, notes string) (*models.ReviewItem, error)
	ApplyBulkDecision(ctx context.Context, campaignID id.CampaignID, itemIDs []id.ItemID, decision models.Decision, notes string) (*service.BulkResult, error)
	Complete(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
}

// Notifier defines the interface for sending campaign reminders.
type Notifier interface {
	Notify(ctx context.Context, campaignID id.CampaignID, reviewerIDs []id.ReviewerID) (*notify.Result, error)
}

// Handler wires access-review endpoints to the review service.
type Handler struct {
	service      Service
	notifier     Notifier
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New constructs a review handler with its dependencies.
func New(service Service, notifier Notifier, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		notifier:     notifier,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the access-review routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	reviewRouter := chi.NewRouter()
	reviewRouter.Use(middleware.Recovery(h.logger))
	reviewRouter.Use(middleware.RequestID)
	reviewRouter.Use(middleware.RequestTime)
	reviewRouter.Use(middleware.Logger(h.logger))
	reviewRouter.Use(middleware.Timeout(30 * time.Second))
	reviewRouter.Use(middleware.ContentTypeJSON)
	reviewRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	reviewRouter.Post("/access-reviews", h.HandleCreateCampaign)
	reviewRouter.Get("/access-reviews", h.HandleListCampaigns)
	reviewRouter.Get("/access-reviews/{campaignID}", h.HandleGetCampaign)
	reviewRouter.Get("/access-reviews/{campaignID}/progress", h.HandleProgress)
	reviewRouter.Patch("/access-reviews/{campaignID}/items/{itemID}", h.HandleDecision)
	reviewRouter.Patch("/access-reviews/{campaignID}/items", h.HandleBulkDecision)
	reviewRouter.Post("/access-reviews/{campaignID}/complete", h.HandleComplete)
	reviewRouter.Post("/access-reviews/{campaignID}/notify", h.HandleNotify)
	reviewRouter.Get("/access-reviews/{campaignID}/report", h.HandleReport)

	r.Mount("/", reviewRouter)
}

// HandleCreateCampaign handles POST /access-reviews.
func (h *Handler) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCampaignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	campaign, err := h.service.CreateCampaign(ctx, service.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		ReviewerIDs: req.ParsedReviewerIDs(),
		Scope:       req.Scope,
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to create campaign", err)
		return
	}

	h.logger.InfoContext(ctx, "campaign created",
		"request_id", requestID,
		"campaign_id", campaign.ID,
		"name", campaign.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCampaign(campaign))
}

// HandleListCampaigns handles GET /access-reviews with an optional ?status=
// filter on derived status.
func (h *Handler) HandleListCampaigns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter service.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseCampaignStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = &status
	}

	campaigns, err := h.service.ListCampaigns(ctx, filter)
	if err != nil {
		h.writeServiceError(w, r, "failed to list campaigns", err)
		return
	}

	resp := make([]CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		resp = append(resp, FromCampaign(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetCampaign handles GET /access-reviews/{campaignID}.
func (h *Handler) HandleGetCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetCampaign(ctx, campaignID)
	if err != nil {
		h.writeServiceError(w, r, "failed to get campaign", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDetail(detail))
}

// HandleProgress handles GET /access-reviews/{campaignID}/progress.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	progress, err := h.service.Progress(ctx, campaignID)
	if err != nil {
		h.writeServiceError(w, r, "failed to read progress", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProgressResponse(progress))
}

// HandleDecision handles PATCH /access-reviews/{campaignID}/items/{itemID}.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.ApplyDecision(ctx, campaignID, itemID, req.ParsedDecision(), req.Notes)
	if err != nil {
		h.writeServiceError(w, r, "failed to apply decision", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromItem(item))
}

// HandleBulkDecision handles PATCH /access-reviews/{campaignID}/items.
func (h *Handler) HandleBulkDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[BulkDecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyBulkDecision(ctx, campaignID, req.ParsedItemIDs(), req.ParsedDecision(), req.Notes)
	if err != nil {
		h.writeServiceError(w, r, "failed to apply bulk decision", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromBulkResult(result))
}

// HandleComplete handles POST /access-reviews/{campaignID}/complete.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.service.Complete(ctx, campaignID)
	if err != nil {
		h.writeServiceError(w, r, "failed to complete campaign", err)
		return
	}

	h.logger.InfoContext(ctx, "campaign completed",
		"request_id", requestID,
		"campaign_id", campaign.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromCampaign(campaign))
}

// HandleNotify handles POST /access-reviews/{campaignID}/notify.
func (h *Handler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	// The body is optional: an empty or absent reviewer list falls back to
	// the campaign's assigned reviewers.
	var reviewerIDs []id.ReviewerID
	if r.ContentLength > 0 {
		req, ok := httputil.DecodeAndPrepare[NotifyRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		reviewerIDs = req.ParsedReviewerIDs()
	}

	result, err := h.notifier.Notify(ctx, campaignID, reviewerIDs)
	if err != nil {
		h.writeServiceError(w, r, "failed to notify reviewers", err)
		return
	}

	resp := NotifyResponse{Delivered: result.Delivered}
	status := http.StatusOK
	if result.Composed != nil {
		// The primary channel did not deliver; hand the caller a composed
		// message to send through their own mail client.
		status = http.StatusAccepted
		resp.Composed = &ComposedMessage{
			Subject: result.Composed.Subject,
			Body:    result.Composed.Body,
			To:      result.Composed.To,
		}
	}
	httputil.WriteJSON(w, status, resp)
}

// HandleReport handles GET /access-reviews/{campaignID}/report, streaming the
// campaign report as a CSV download.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetCampaign(ctx, campaignID)
	if err != nil {
		h.writeServiceError(w, r, "failed to generate report", err)
		return
	}

	body := report.Generate(&detail.CampaignDetail)
	w.Header().Set("Content-Type", report.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(detail.Campaign)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (id.CampaignID, bool) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CampaignID{}, false
	}
	return campaignID, true
}

// writeServiceError logs at a severity matching the error code and writes the
// mapped HTTP response. Expected domain outcomes log at warn; everything else
// is an error worth paging on.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)

	switch code {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"code", code,
			"error", err.Error(),
		)
	}

	httputil.WriteError(w, err)
}
