package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	_ EventStore    = (*memstore.Events)(nil)
	_ RequestStore  = (*memstore.Requests)(nil)
	_ UserStore     = (*memstore.Users)(nil)
	_ CategoryStore = (*memstore.Categories)(nil)
	_ HitStore      = (*memstore.Hits)(nil)
)

type fakeViews struct {
	mu    sync.Mutex
	stats []model.ViewStats
	err   error
	calls int
	last  []string
}

func (f *fakeViews) Stats(_ context.Context, _, _ time.Time, uris []string, _ bool) ([]model.ViewStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = append([]string(nil), uris...)
	return f.stats, f.err
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]int64
}

func (c *fakeCache) Get(_ context.Context, uris []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64)
	for _, u := range uris {
		if n, ok := c.data[u]; ok {
			out[u] = n
		}
	}
	return out, nil
}

func (c *fakeCache) Put(_ context.Context, counts map[string]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]int64)
	}
	for k, v := range counts {
		c.data[k] = v
	}
	return nil
}

type recordedHits struct {
	mu   sync.Mutex
	hits []model.EndpointHitDto
}

func (r *recordedHits) Record(hit model.EndpointHitDto) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, hit)
}

func (r *recordedHits) all() []model.EndpointHitDto {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.EndpointHitDto(nil), r.hits...)
}

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	db       *memstore.DB
	events   *EventService
	requests *RequestService
	dir      *DirectoryService
	composer *Composer
	views    *fakeViews
	cache    *fakeCache
	hits     *recordedHits
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.Discard()
	db := memstore.New()
	views := &fakeViews{}
	cache := &fakeCache{}
	hits := &recordedHits{}

	clock := func() time.Time { return testNow }

	composer := NewComposer(log, db.Requests(), db.Users(), db.Categories(), views, cache, time.Second)
	composer.now = clock

	events := NewEventService(log, db.Events(), db.Users(), db.Categories(), composer, hits, "ewm-main-service")
	events.now = clock

	requests := NewRequestService(log, db.Requests(), db.Events(), db.Users())
	requests.now = clock

	return &env{
		db:       db,
		events:   events,
		requests: requests,
		dir:      NewDirectoryService(db.Users(), db.Categories()),
		composer: composer,
		views:    views,
		cache:    cache,
		hits:     hits,
	}
}

func (e *env) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := e.dir.CreateUser(context.Background(), model.NewUserRequest{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u.ID
}

func (e *env) category(t *testing.T, name string) uuid.UUID {
	t.Helper()
	c, err := e.dir.CreateCategory(context.Background(), model.NewCategoryRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

func draft(category uuid.UUID, limit int, moderation bool) model.NewEventRequest {
	return model.NewEventRequest{
		Annotation:        "An evening of live jazz by the river",
		Category:          category,
		Description:       "Bring a blanket, the concert runs until late in the evening.",
		EventDate:         model.NewDateTime(testNow.Add(72 * time.Hour)),
		Location:          &model.Location{Lat: 55.75, Lon: 37.62},
		ParticipantLimit:  limit,
		RequestModeration: &moderation,
		Title:             "Jazz night",
	}
}

func (e *env) pendingEvent(t *testing.T, owner uuid.UUID, limit int, moderation bool) uuid.UUID {
	t.Helper()
	ev, err := e.events.Create(context.Background(), owner, draft(e.category(t, uuid.NewString()[:8]), limit, moderation))
	require.NoError(t, err)
	return ev.ID
}

func (e *env) publishedEvent(t *testing.T, owner uuid.UUID, limit int, moderation bool) uuid.UUID {
	t.Helper()
	id := e.pendingEvent(t, owner, limit, moderation)
	publish := model.StateActionPublish
	_, err := e.events.UpdateByAdmin(context.Background(), id, model.UpdateEventRequest{StateAction: &publish})
	require.NoError(t, err)
	return id
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}
