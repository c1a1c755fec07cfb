package service

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsUniqueNeverExceedsRaw(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(logger.Discard(), memstore.New().Hits())

	at := model.NewDateTime(testNow)
	for _, h := range []struct{ uri, ip string }{
		{"/events/42", "10.0.0.1"},
		{"/events/42", "10.0.0.1"},
		{"/events/42", "10.0.0.2"},
		{"/events/7", "10.0.0.3"},
	} {
		out, err := svc.Record(ctx, model.EndpointHitDto{App: "ewm-main-service", URI: h.uri, IP: h.ip, Timestamp: at})
		require.NoError(t, err)
		assert.NotZero(t, out.ID)
	}

	q := model.StatsQuery{Start: testNow.Add(-time.Hour), End: testNow.Add(time.Hour), URIs: []string{"/events/42"}}

	raw, err := svc.Query(ctx, q)
	require.NoError(t, err)
	q.Unique = true
	unique, err := svc.Query(ctx, q)
	require.NoError(t, err)

	require.Len(t, raw, 1)
	require.Len(t, unique, 1)
	assert.Equal(t, int64(3), raw[0].Hits)
	assert.Equal(t, int64(2), unique[0].Hits)
	assert.LessOrEqual(t, unique[0].Hits, raw[0].Hits)

	all, err := svc.Query(ctx, model.StatsQuery{Start: testNow.Add(-time.Hour), End: testNow.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/events/42", all[0].URI, "busiest first")
}

func TestStatsWindowIsInclusive(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(logger.Discard(), memstore.New().Hits())

	_, err := svc.Record(ctx, model.EndpointHitDto{App: "a", URI: "/events", IP: "10.0.0.1", Timestamp: model.NewDateTime(testNow)})
	require.NoError(t, err)

	stats, err := svc.Query(ctx, model.StatsQuery{Start: testNow, End: testNow})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	stats, err = svc.Query(ctx, model.StatsQuery{Start: testNow.Add(time.Second), End: testNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestStatsValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(logger.Discard(), memstore.New().Hits())

	_, err := svc.Query(ctx, model.StatsQuery{Start: testNow, End: testNow.Add(-time.Second)})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.Record(ctx, model.EndpointHitDto{App: "a", URI: "/events", IP: "10.0.0.1"})
	requireKind(t, err, apperr.KindValidation)
}
