package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HitRepository is the append-only log of endpoint hits.
type HitRepository struct {
	db *pgxpool.Pool
}

// NewHitRepository constructs a HitRepository.
func NewHitRepository(db *pgxpool.Pool) *HitRepository {
	return &HitRepository{db: db}
}

// Insert appends a hit and fills in its generated id.
func (r *HitRepository) Insert(ctx context.Context, h *model.EndpointHit) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO endpoint_hits (app, uri, ip, timestamp) VALUES ($1, $2, $3, $4) RETURNING id`,
		h.App, h.URI, h.IP, h.Timestamp,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}

// Stats groups hits in [q.Start, q.End] by (app, uri), counting rows or
// distinct IPs, busiest first. An empty q.URIs means every URI.
func (r *HitRepository) Stats(ctx context.Context, q model.StatsQuery) ([]model.ViewStats, error) {
	count := "COUNT(h.ip)"
	if q.Unique {
		count = "COUNT(DISTINCT h.ip)"
	}

	var p predicates
	p.add(`h.timestamp >= ?`, q.Start)
	p.add(`h.timestamp <= ?`, q.End)
	if len(q.URIs) > 0 {
		p.add(`h.uri = ANY(?)`, q.URIs)
	}

	query := `SELECT h.app, h.uri, ` + count + ` AS hits FROM endpoint_hits h` + p.where() +
		` GROUP BY h.app, h.uri ORDER BY hits DESC, h.uri`

	rows, err := r.db.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.ViewStats, 0)
	for rows.Next() {
		var s model.ViewStats
		if err := rows.Scan(&s.App, &s.URI, &s.Hits); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
