// Package handler exposes the event HTTP surface: a public read-only listing
// and the authenticated organizer management routes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	eventModel "inscrito/internal/event/models"
	"inscrito/internal/platform/middleware"
	"inscrito/internal/transport/http/shared"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Service defines the interface for event operations.
type Service interface {
	Create(ctx context.Context, req *eventModel.CreateEventRequest) (*eventModel.Event, error)
	Get(ctx context.Context, eventID id.EventID) (*eventModel.Event, error)
	ListOpen(ctx context.Context) ([]*eventModel.Event, error)
	List(ctx context.Context, filter eventModel.ListEventsFilter) ([]*eventModel.Event, error)
	Update(ctx context.Context, eventID id.EventID, req *eventModel.UpdateEventRequest) (*eventModel.Event, error)
	ChangeStatus(ctx context.Context, eventID id.EventID, target eventModel.EventStatus) (*eventModel.Event, error)
	Close(ctx context.Context, eventID id.EventID) (*eventModel.Event, error)
	CloseExpired(ctx context.Context) (int, error)
	Delete(ctx context.Context, eventID id.EventID) error
	AddCategory(ctx context.Context, eventID id.EventID, req *eventModel.CreateCategoryRequest) (*eventModel.Category, error)
	UpdateCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID, req *eventModel.CreateCategoryRequest) (*eventModel.Category, error)
	RemoveCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID) error
}

// Handler handles event endpoints.
type Handler struct {
	logger *slog.Logger
	events Service
}

func New(events Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, events: events}
}

// RegisterPublic attaches the unauthenticated read routes. Listing only ever
// shows open events; drafts and closed events are organizer-only.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/events", h.handleListOpen)
	r.Get("/events/{eventID}", h.handleGetPublic)
}

// RegisterOrganizer attaches the management routes. The router wraps this
// group with RequireAuth.
func (h *Handler) RegisterOrganizer(r chi.Router) {
	r.Post("/events", h.handleCreate)
	r.Get("/events", h.handleList)
	r.Get("/events/{eventID}", h.handleGet)
	r.Patch("/events/{eventID}", h.handleUpdate)
	r.Delete("/events/{eventID}", h.handleDelete)
	r.Put("/events/{eventID}/status", h.handleChangeStatus)
	r.Post("/events/close-expired", h.handleCloseExpired)
	r.Post("/events/{eventID}/close", h.handleClose)
	r.Post("/events/{eventID}/categories", h.handleAddCategory)
	r.Put("/events/{eventID}/categories/{categoryID}", h.handleUpdateCategory)
	r.Delete("/events/{eventID}/categories/{categoryID}", h.handleRemoveCategory)
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req eventModel.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	event, err := h.events.Create(ctx, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create event", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleListOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.events.ListOpen(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list events", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := eventModel.ListEventsFilter{
		Status: eventModel.EventStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	events, err := h.events.List(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list events", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleGetPublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load event", err)
		return
	}
	// An unpublished event does not exist as far as the public is concerned.
	if event.Status == eventModel.StatusDraft {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "event not found"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load event", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	var req eventModel.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	event, err := h.events.Update(ctx, eventID, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update event", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	event, err := h.events.ChangeStatus(ctx, eventID, eventModel.EventStatus(req.Status))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to change event status", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	event, err := h.events.Close(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to close event", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, event)
}

// handleCloseExpired is the external trigger for the sweep that closes open
// events whose window has passed, typically hit by a scheduler.
func (h *Handler) handleCloseExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	closed, err := h.events.CloseExpired(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to close expired events", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"closed": closed})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	if err := h.events.Delete(ctx, eventID); err != nil {
		h.writeServiceError(ctx, w, "failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	var req eventModel.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := h.events.AddCategory(ctx, eventID, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to add category", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category id"))
		return
	}
	var req eventModel.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := h.events.UpdateCategory(ctx, eventID, categoryID, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update category", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, category)
}

func (h *Handler) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category id"))
		return
	}
	if err := h.events.RemoveCategory(ctx, eventID, categoryID); err != nil {
		h.writeServiceError(ctx, w, "failed to remove category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs 5xx-class failures and passes coded errors through.
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
