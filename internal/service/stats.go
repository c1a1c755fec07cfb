package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// StatsService records hits and answers view count queries.
type StatsService struct {
	log  *slog.Logger
	hits HitStore
}

// NewStatsService constructs a StatsService.
func NewStatsService(log *slog.Logger, hits HitStore) *StatsService {
	return &StatsService{log: log, hits: hits}
}

// Record appends one hit and returns it with its id.
func (s *StatsService) Record(ctx context.Context, dto model.EndpointHitDto) (*model.EndpointHitDto, error) {
	if dto.Timestamp.IsZero() {
		return nil, apperr.Validation("timestamp is required")
	}

	hit := dto.Hit()
	if err := s.hits.Insert(ctx, &hit); err != nil {
		return nil, fmt.Errorf("record hit: %w", err)
	}

	s.log.Debug("hit recorded",
		slog.String("op", "service.StatsService.Record"),
		slog.String("app", hit.App),
		slog.String("uri", hit.URI),
	)

	out := hit.Dto()
	return &out, nil
}

// Query counts hits per (app, uri) in [q.Start, q.End], busiest first.
// With q.Unique set, each caller IP counts once per (app, uri).
func (s *StatsService) Query(ctx context.Context, q model.StatsQuery) ([]model.ViewStats, error) {
	if q.Start.After(q.End) {
		return nil, apperr.Validation("start %s is after end %s",
			q.Start.Format(model.DateTimeLayout), q.End.Format(model.DateTimeLayout))
	}

	stats, err := s.hits.Stats(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	if stats == nil {
		stats = []model.ViewStats{}
	}
	return stats, nil
}
