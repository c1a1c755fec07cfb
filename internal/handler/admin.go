package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
)

// AdminHandler serves moderation and directory endpoints.
type AdminHandler struct {
	log    *slog.Logger
	events *service.EventService
	dir    *service.DirectoryService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(log *slog.Logger, events *service.EventService, dir *service.DirectoryService) *AdminHandler {
	return &AdminHandler{log: log, events: events, dir: dir}
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.AdminHandler.CreateUser"))

	var req model.NewUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, log, err)
		return
	}

	user, err := h.dir.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// CreateCategory handles POST /admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.AdminHandler.CreateCategory"))

	var req model.NewCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, log, err)
		return
	}

	cat, err := h.dir.CreateCategory(r.Context(), req)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, cat)
}

// ListEvents handles GET /admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.AdminHandler.ListEvents"))

	q := r.URL.Query()
	var (
		f   model.AdminEventFilter
		err error
	)
	if f.Users, err = queryUUIDs(q, "users"); err != nil {
		writeError(w, log, err)
		return
	}
	for _, s := range queryList(q, "states") {
		f.States = append(f.States, model.EventState(s))
	}
	if f.Categories, err = queryUUIDs(q, "categories"); err != nil {
		writeError(w, log, err)
		return
	}
	if f.RangeStart, err = queryTime(q, "rangeStart"); err != nil {
		writeError(w, log, err)
		return
	}
	if f.RangeEnd, err = queryTime(q, "rangeEnd"); err != nil {
		writeError(w, log, err)
		return
	}
	if f.Page, err = queryPage(q); err != nil {
		writeError(w, log, err)
		return
	}

	events, err := h.events.ListForAdmin(r.Context(), f)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// UpdateEvent handles PATCH /admin/events/{eventId}
// Applies edits and the publish/reject decision.
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.AdminHandler.UpdateEvent"))

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

	event, err := h.events.UpdateByAdmin(r.Context(), eventID, patch)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}
