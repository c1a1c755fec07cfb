package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeFallsBackToZero(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 0, true)

	e.views.err = errors.New("stats service down")
	e.composer.cache = nil

	ev, err := e.events.GetPublished(ctx, id, Visit{URI: EventURI(id), IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Zero(t, ev.Views)
}

func TestComposeFallsBackToCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 0, true)

	e.views.stats = []model.ViewStats{{App: "ewm-main-service", URI: EventURI(id), Hits: 11}}
	ev, err := e.events.GetPublished(ctx, id, Visit{})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ev.Views)

	e.views.stats = nil
	e.views.err = errors.New("timeout")
	ev, err = e.events.GetPublished(ctx, id, Visit{})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ev.Views, "stale count served from cache")
}

func TestComposeSumsViewsAcrossApps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 0, true)

	e.views.stats = []model.ViewStats{
		{App: "ewm-main-service", URI: EventURI(id), Hits: 4},
		{App: "ewm-mobile", URI: EventURI(id), Hits: 1},
		{App: "ewm-main-service", URI: "/events", Hits: 100},
	}
	ev, err := e.events.GetPublished(ctx, id, Visit{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.Views)
}

func TestComposeEmpty(t *testing.T) {
	e := newEnv(t)
	out, err := e.composer.Compose(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Zero(t, e.views.calls)
}
