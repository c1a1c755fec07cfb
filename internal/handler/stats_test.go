package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/Shivanand-hulikatti/explore-events/internal/statsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsPath(start, end string, unique bool, uris ...string) string {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	for _, u := range uris {
		q.Add("uris", u)
	}
	if unique {
		q.Set("unique", "true")
	}
	return "/stats?" + q.Encode()
}

func TestStatsScenario(t *testing.T) {
	h := newStatsAPI(t)

	for _, ip := range []string{"192.168.0.1", "192.168.0.1", "192.168.0.2"} {
		rec := do(t, h, http.MethodPost, "/hit", map[string]string{
			"app":       "ewm-main-service",
			"uri":       "/events/42",
			"ip":        ip,
			"timestamp": "2030-05-01 10:00:00",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		stored := decode[model.EndpointHitDto](t, rec)
		assert.NotZero(t, stored.ID)
		assert.Equal(t, ip, stored.IP)
	}

	rec := do(t, h, http.MethodGet, statsPath("2030-05-01 00:00:00", "2030-05-02 00:00:00", true, "/events/42"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	unique := decode[[]model.ViewStats](t, rec)
	require.Len(t, unique, 1)
	assert.Equal(t, model.ViewStats{App: "ewm-main-service", URI: "/events/42", Hits: 2}, unique[0])

	rec = do(t, h, http.MethodGet, statsPath("2030-05-01 00:00:00", "2030-05-02 00:00:00", false, "/events/42"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := decode[[]model.ViewStats](t, rec)
	require.Len(t, raw, 1)
	assert.Equal(t, int64(3), raw[0].Hits)

	rec = do(t, h, http.MethodGet, statsPath("2030-05-01 00:00:00", "2030-05-02 00:00:00", false, "/events/7"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatsErrors(t *testing.T) {
	h := newStatsAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"start after end", http.MethodGet, statsPath("2030-05-02 00:00:00", "2030-05-01 00:00:00", false), nil},
		{"missing end", http.MethodGet, "/stats?start=2030-05-01%2000:00:00", nil},
		{"bad time", http.MethodGet, statsPath("yesterday", "2030-05-01 00:00:00", false), nil},
		{"bad unique", http.MethodGet, statsPath("2030-05-01 00:00:00", "2030-05-02 00:00:00", false) + "&unique=maybe", nil},
		{"invalid ip", http.MethodPost, "/hit", map[string]string{
			"app": "a", "uri": "/events", "ip": "999.1.1.1", "timestamp": "2030-05-01 10:00:00",
		}},
		{"missing timestamp", http.MethodPost, "/hit", map[string]string{
			"app": "a", "uri": "/events", "ip": "10.0.0.1",
		}},
		{"missing uri", http.MethodPost, "/hit", map[string]string{
			"app": "a", "ip": "10.0.0.1", "timestamp": "2030-05-01 10:00:00",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "BAD_REQUEST", decode[model.ApiError](t, rec).Status)
		})
	}
}

// Public reads on the event service reach the stats service through the
// dispatcher and come back as view counts.
func TestViewsRoundTripThroughStatsService(t *testing.T) {
	log := logger.Discard()
	statsSrv := httptest.NewServer(newStatsAPI(t))
	defer statsSrv.Close()

	client := statsclient.New(statsSrv.URL, time.Second)
	dispatcher := statsclient.NewDispatcher(log, client, 64, 1, time.Second)
	dispatcher.Start()

	h := newEventsAPI(t, client, dispatcher)
	owner := createUser(t, h, "owner")
	ev := createEvent(t, h, owner, createCategory(t, h, "music"), 0, true)
	publish(t, h, ev.ID)

	for _, ip := range []string{"10.1.0.1", "10.1.0.2", "10.1.0.1"} {
		rec := do(t, h, http.MethodGet, "/events/"+ev.ID.String(), nil, "X-Real-IP", ip)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Shutdown(ctx))

	rec := do(t, h, http.MethodGet, "/users/"+owner.String()+"/events/"+ev.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[model.EventFull](t, rec).Views, "views count distinct caller IPs")

	raw, err := client.Stats(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour), []string{service.EventURI(ev.ID)}, false)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, int64(3), raw[0].Hits)
}
