package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
)

// RequestHandler serves participation request endpoints.
type RequestHandler struct {
	log *slog.Logger
	svc *service.RequestService
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(log *slog.Logger, svc *service.RequestService) *RequestHandler {
	return &RequestHandler{log: log, svc: svc}
}

// Submit handles POST /users/{userId}/requests?eventId=
// Performs a concurrency-safe admission for the specified event.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.RequestHandler.Submit"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}
	eventID, err := queryUUID(r.URL.Query(), "eventId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	req, err := h.svc.Submit(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// Cancel handles PATCH /users/{userId}/requests/{requestId}/cancel
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.RequestHandler.Cancel"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}
	requestID, err := pathUUID(r, "requestId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	req, err := h.svc.CancelOwn(r.Context(), userID, requestID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// ListOwn handles GET /users/{userId}/requests
func (h *RequestHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.RequestHandler.ListOwn"))

	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, log, err)
		return
	}

	reqs, err := h.svc.ListForRequester(r.Context(), userID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

// ListForEvent handles GET /users/{userId}/events/{eventId}/requests
func (h *RequestHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.RequestHandler.ListForEvent"))

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

	reqs, err := h.svc.ListForEvent(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

// Resolve handles PATCH /users/{userId}/events/{eventId}/requests
func (h *RequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.RequestHandler.Resolve"))

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

	var upd model.StatusUpdateRequest
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, log, err)
		return
	}

	res, err := h.svc.ResolveBulk(r.Context(), userID, eventID, upd)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
