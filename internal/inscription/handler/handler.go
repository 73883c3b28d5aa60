// Package handler exposes the registration HTTP surface. One registration
// endpoint serves both identity paths: an authenticated caller registers
// against their profile, an anonymous caller goes through the guest flow.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	inscriptionModel "inscrito/internal/inscription/models"
	"inscrito/internal/platform/middleware"
	"inscrito/internal/transport/http/shared"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Service defines the interface for inscription operations.
type Service interface {
	CreateForGuest(ctx context.Context, eventID id.EventID, req *inscriptionModel.CreateGuestInscriptionRequest) (*inscriptionModel.Inscription, error)
	CreateForUser(ctx context.Context, eventID id.EventID, userID id.UserID, req *inscriptionModel.CreateUserInscriptionRequest) (*inscriptionModel.Inscription, error)
	Get(ctx context.Context, inscriptionID id.InscriptionID) (*inscriptionModel.Inscription, error)
	LookupByCPF(ctx context.Context, rawCPF string) ([]*inscriptionModel.Inscription, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*inscriptionModel.Inscription, error)
	ListByEvent(ctx context.Context, eventID id.EventID, filter inscriptionModel.ListFilter) ([]*inscriptionModel.Inscription, error)
	CountByStatus(ctx context.Context, eventID id.EventID) (map[inscriptionModel.Status]int, error)
	Cancel(ctx context.Context, inscriptionID id.InscriptionID) (*inscriptionModel.Inscription, error)
	ConfirmManually(ctx context.Context, inscriptionID id.InscriptionID, actorID string) (*inscriptionModel.Inscription, error)
}

// Handler handles inscription endpoints.
type Handler struct {
	logger       *slog.Logger
	inscriptions Service
}

func New(inscriptions Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, inscriptions: inscriptions}
}

// RegisterPublic attaches the registration and lookup routes. The router
// wraps this group with OptionalAuth so an authenticated caller is recognized
// without requiring a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/events/{eventID}/inscriptions", h.handleCreate)
	r.Get("/inscriptions/lookup", h.handleLookup)
	r.Get("/inscriptions/{inscriptionID}", h.handleGet)
	r.Post("/inscriptions/{inscriptionID}/cancel", h.handleCancel)
}

// RegisterUser attaches the authenticated self-service routes.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Get("/me/inscriptions", h.handleListMine)
}

// RegisterOrganizer attaches the management routes.
func (h *Handler) RegisterOrganizer(r chi.Router) {
	r.Get("/events/{eventID}/inscriptions", h.handleListByEvent)
	r.Get("/events/{eventID}/inscriptions/stats", h.handleStats)
	r.Post("/inscriptions/{inscriptionID}/confirm", h.handleConfirmManually)
}

// handleCreate branches on the caller's identity: a verified user registers
// with profile data, everyone else submits the full guest payload.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}

	if rawUserID := middleware.GetUserID(ctx); rawUserID != "" {
		userID, err := id.ParseUserID(rawUserID)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid caller identity"))
			return
		}
		var req inscriptionModel.CreateUserInscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		inscription, err := h.inscriptions.CreateForUser(ctx, eventID, userID, &req)
		if err != nil {
			h.writeServiceError(ctx, w, "failed to create inscription", err)
			return
		}
		shared.WriteJSON(w, http.StatusCreated, inscription)
		return
	}

	var req inscriptionModel.CreateGuestInscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	inscription, err := h.inscriptions.CreateForGuest(ctx, eventID, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create guest inscription", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, inscription)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inscriptionID, err := id.ParseInscriptionID(chi.URLParam(r, "inscriptionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inscription id"))
		return
	}
	inscription, err := h.inscriptions.Get(ctx, inscriptionID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load inscription", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, inscription)
}

// handleLookup serves the duplicate-rejection recovery path.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawCPF := r.URL.Query().Get("cpf")
	if rawCPF == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "cpf query parameter is required"))
		return
	}
	inscriptions, err := h.inscriptions.LookupByCPF(ctx, rawCPF)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to look up inscriptions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"inscriptions": inscriptions})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid caller identity"))
		return
	}
	inscriptions, err := h.inscriptions.ListByUser(ctx, userID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list inscriptions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"inscriptions": inscriptions})
}

func (h *Handler) handleListByEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	filter := inscriptionModel.ListFilter{
		Status: inscriptionModel.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	inscriptions, err := h.inscriptions.ListByEvent(ctx, eventID, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list inscriptions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"inscriptions": inscriptions})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	counts, err := h.inscriptions.CountByStatus(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to count inscriptions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inscriptionID, err := id.ParseInscriptionID(chi.URLParam(r, "inscriptionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inscription id"))
		return
	}
	inscription, err := h.inscriptions.Cancel(ctx, inscriptionID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to cancel inscription", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, inscription)
}

func (h *Handler) handleConfirmManually(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inscriptionID, err := id.ParseInscriptionID(chi.URLParam(r, "inscriptionID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid inscription id"))
		return
	}
	actorID := middleware.GetUserID(ctx)
	if actorID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	inscription, err := h.inscriptions.ConfirmManually(ctx, inscriptionID, actorID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to confirm inscription", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, inscription)
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

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
