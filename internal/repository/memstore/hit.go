package memstore

import (
	"context"
	"sort"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

type Hits struct{ db *DB }

func (s *Hits) Insert(_ context.Context, h *model.EndpointHit) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h.ID = int64(len(s.db.hits) + 1)
	s.db.hits = append(s.db.hits, *h)
	return nil
}

func (s *Hits) Stats(_ context.Context, q model.StatsQuery) ([]model.ViewStats, error) {
	type key struct{ app, uri string }
	uris := make(map[string]bool, len(q.URIs))
	for _, u := range q.URIs {
		uris[u] = true
	}

	s.db.mu.RLock()
	order := make([]key, 0)
	ips := make(map[key]map[string]bool)
	raw := make(map[key]int64)
	for _, h := range s.db.hits {
		if h.Timestamp.Before(q.Start) || h.Timestamp.After(q.End) {
			continue
		}
		if len(uris) > 0 && !uris[h.URI] {
			continue
		}
		k := key{h.App, h.URI}
		if _, ok := ips[k]; !ok {
			ips[k] = make(map[string]bool)
			order = append(order, k)
		}
		ips[k][h.IP] = true
		raw[k]++
	}
	s.db.mu.RUnlock()

	stats := make([]model.ViewStats, 0, len(order))
	for _, k := range order {
		n := raw[k]
		if q.Unique {
			n = int64(len(ips[k]))
		}
		stats = append(stats, model.ViewStats{App: k.app, URI: k.uri, Hits: n})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Hits != stats[j].Hits {
			return stats[i].Hits > stats[j].Hits
		}
		return stats[i].URI < stats[j].URI
	})
	return stats, nil
}
