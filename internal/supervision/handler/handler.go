// Package handler exposes the supervision API over HTTP. Thin layer:
// request parsing and response mapping only.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"riskgate/internal/supervision/service"
	"riskgate/internal/validation/events"
	"riskgate/internal/validation/models"
	"riskgate/internal/validation/store/request"
	id "riskgate/pkg/domain"
	dErrors "riskgate/pkg/domain-errors"
	"riskgate/pkg/platform/httputil"
)

// Handler serves the supervision endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a supervision handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAdmin mounts the supervision routes. The caller wraps the router
// with the admin-token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/dashboard", h.handleDashboard)
	r.Get("/admin/reviews/pending", h.handlePendingReviews)
	r.Get("/admin/requests", h.handleSearch)
	r.Get("/admin/requests/{requestID}", h.handleGet)
	r.Post("/admin/requests/{requestID}/decision", h.handleDecide)
	r.Put("/admin/requests/{requestID}/limits", h.handleUpdateLimits)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

func (h *Handler) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.PendingReviews(r.Context(), pageFromQuery(r))
	if err != nil {
		h.logger.Error("pending reviews query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaries(reqs))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := request.Query{
		Status:   models.Status(r.URL.Query().Get("status")),
		RiskTier: models.RiskTier(r.URL.Query().Get("risk_tier")),
		AgencyID: r.URL.Query().Get("agency_id"),
		ClientID: r.URL.Query().Get("client_id"),
		Text:     r.URL.Query().Get("q"),
		Page:     pageFromQuery(r),
	}
	reqs, err := h.svc.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaries(reqs))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request id"))
		return
	}
	req, err := h.svc.Get(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetail(req))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Approved      bool   `json:"approved"`
		ReviewerNotes string `json:"reviewer_notes"`
		ReviewerID    string `json:"reviewer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	decision := events.ManualReviewDecision{
		RequestID:     chi.URLParam(r, "requestID"),
		Approved:      body.Approved,
		ReviewerNotes: body.ReviewerNotes,
		ReviewerID:    body.ReviewerID,
	}
	if err := h.svc.Decide(r.Context(), decision); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "decided"})
}

func (h *Handler) handleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request id"))
		return
	}

	var body struct {
		Actor  string        `json:"actor"`
		Limits limitsPayload `json:"limits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid JSON body"))
		return
	}

	assigned := models.TransactionLimits{
		DailyWithdrawal:   body.Limits.DailyWithdrawal,
		DailyTransfer:     body.Limits.DailyTransfer,
		MonthlyOperations: body.Limits.MonthlyOperations,
	}
	if err := h.svc.UpdateLimits(r.Context(), requestID, assigned, body.Actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func pageFromQuery(r *http.Request) request.Page {
	var page request.Page
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	return page
}
