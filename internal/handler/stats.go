package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
)

// StatsHandler serves the analytics endpoints.
type StatsHandler struct {
	log *slog.Logger
	svc *service.StatsService
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(log *slog.Logger, svc *service.StatsService) *StatsHandler {
	return &StatsHandler{log: log, svc: svc}
}

// Hit handles POST /hit
func (h *StatsHandler) Hit(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.StatsHandler.Hit"))

	var dto model.EndpointHitDto
	if err := decodeJSON(w, r, &dto); err != nil {
		writeError(w, log, err)
		return
	}

	stored, err := h.svc.Record(r.Context(), dto)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// Stats handles GET /stats?start=&end=&uris=&unique=
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handler.StatsHandler.Stats"))

	q := r.URL.Query()
	start, err := queryTime(q, "start")
	if err != nil {
		writeError(w, log, err)
		return
	}
	end, err := queryTime(q, "end")
	if err != nil {
		writeError(w, log, err)
		return
	}
	if start == nil || end == nil {
		writeError(w, log, apperr.Validation("parameters start and end are required"))
		return
	}
	unique, err := queryBool(q, "unique")
	if err != nil {
		writeError(w, log, err)
		return
	}

	stats, err := h.svc.Query(r.Context(), model.StatsQuery{
		Start:  *start,
		End:    *end,
		URIs:   queryList(q, "uris"),
		Unique: unique != nil && *unique,
	})
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
