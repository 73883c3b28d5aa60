// Package handler exposes the payment HTTP surface: charge creation on the
// participant's status page, the gateway webhook receiver, and the organizer
// revenue summary.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inscrito/internal/payment/models"
	"inscrito/internal/platform/middleware"
	"inscrito/internal/transport/http/shared"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Service defines the interface for payment operations.
type Service interface {
	CreateForInscription(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error)
	Get(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	GetByInscription(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error)
	SumConfirmedByEvent(ctx context.Context, eventID id.EventID) (id.Money, error)
	ProcessWebhook(ctx context.Context, payload *models.WebhookPayload) models.WebhookResult
}

// Handler handles payment endpoints.
type Handler struct {
	logger   *slog.Logger
	payments Service
}

func New(payments Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, payments: payments}
}

// RegisterPublic attaches the participant-facing payment routes. POST is
// idempotent by design: revisiting the status page re-posts and gets either
// the existing payment (refreshed against the gateway) or a new charge.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/inscriptions/{inscriptionID}/payment", h.handleCreate)
	r.Get("/inscriptions/{inscriptionID}/payment", h.handleGetByInscription)
	r.Get("/payments/{paymentID}", h.handleGet)
}

// RegisterWebhook attaches the gateway callback. The router wraps this group
// with RequireWebhookToken.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/webhooks/gateway", h.handleWebhook)
}

// RegisterOrganizer attaches the management routes.
func (h *Handler) RegisterOrganizer(r chi.Router) {
	r.Get("/events/{eventID}/payments/summary", h.handleSummary)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inscriptionID, err := id.ParseInscriptionID(chi.URLParam(r, "inscriptionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inscription id"))
		return
	}
	payment, err := h.payments.CreateForInscription(ctx, inscriptionID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create payment", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) handleGetByInscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inscriptionID, err := id.ParseInscriptionID(chi.URLParam(r, "inscriptionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inscription id"))
		return
	}
	payment, err := h.payments.GetByInscription(ctx, inscriptionID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load payment", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment id"))
		return
	}
	payment, err := h.payments.Get(ctx, paymentID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load payment", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, payment)
}

// handleWebhook always acknowledges with 200 once the payload decodes. A
// non-2xx response makes the gateway retry, and retrying cannot fix a wrong
// reference or a missing local record; the result body and the logs carry
// the real outcome.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload models.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid webhook payload"))
		return
	}
	result := h.payments.ProcessWebhook(ctx, &payload)
	if !result.Success {
		h.logger.WarnContext(ctx, "webhook not reconciled",
			"request_id", middleware.GetRequestID(ctx),
			"event", payload.Event,
			"message", result.Message,
		)
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	total, err := h.payments.SumConfirmedByEvent(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to sum payments", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"total_centavos": total.Centavos()})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
