package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
)

// EventHandler serves the owner-facing and public event endpoints.
type EventHandler struct {
	log *slog.Logger
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(log *slog.Logger, svc *service.EventService) *EventHandler {
	return &EventHandler{log: log, svc: svc}
}

// CreateEvent handles POST /users/{userId}/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.CreateEvent"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	var req model.NewEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, log, err)
		return
	}
	if req.EventDate.IsZero() {
		writeError(w, log, apperr.Validation("field eventDate: must not be blank"))
		return
	}

	event, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListOwnEvents handles GET /users/{userId}/events
func (h *EventHandler) ListOwnEvents(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.ListOwnEvents"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}
	page, err := queryPage(r.URL.Query())
	if err != nil {
		writeError(w, log, err)
		return
	}

	events, err := h.svc.ListForOwner(r.Context(), userID, page)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// GetOwnEvent handles GET /users/{userId}/events/{eventId}
func (h *EventHandler) GetOwnEvent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.GetOwnEvent"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}
	eventID, err := pathUUID(r, "eventId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	event, err := h.svc.GetForOwner(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateOwnEvent handles PATCH /users/{userId}/events/{eventId}
func (h *EventHandler) UpdateOwnEvent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.UpdateOwnEvent"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}
	eventID, err := pathUUID(r, "eventId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	var patch model.UpdateEventRequest
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, log, err)
		return
	}

	event, err := h.svc.UpdateByOwner(r.Context(), userID, eventID, patch)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListPublished handles GET /events
// Only published events are listed. Every call records one hit.
func (h *EventHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.ListPublished"))

	f, err := publicFilter(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	events, err := h.svc.ListPublished(r.Context(), f, service.Visit{URI: r.URL.Path, IP: clientIP(r)})
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// GetPublished handles GET /events/{eventId}
func (h *EventHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.EventHandler.GetPublished"))

	eventID, err := pathUUID(r, "eventId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	event, err := h.svc.GetPublished(r.Context(), eventID, service.Visit{URI: r.URL.Path, IP: clientIP(r)})
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func publicFilter(r *http.Request) (model.PublicEventFilter, error) {
	q := r.URL.Query()
	var (
		f   model.PublicEventFilter
		err error
	)

	f.Text = q.Get("text")
	if f.Categories, err = queryUUIDs(q, "categories"); err != nil {
		return f, err
	}
	if f.Paid, err = queryBool(q, "paid"); err != nil {
		return f, err
	}
	if f.RangeStart, err = queryTime(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = queryTime(q, "rangeEnd"); err != nil {
		return f, err
	}
	avail, err := queryBool(q, "onlyAvailable")
	if err != nil {
		return f, err
	}
	f.OnlyAvailable = avail != nil && *avail
	f.Sort = model.EventSort(q.Get("sort"))
	if f.Page, err = queryPage(q); err != nil {
		return f, err
	}
	return f, nil
}
