package statsclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	uris    []string
	fail    bool
	release chan struct{}
}

func (s *recordingSender) Hit(ctx context.Context, hit model.EndpointHitDto) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris = append(s.uris, hit.URI)
	if s.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uris...)
}

func TestDispatcherDeliversOnShutdown(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(logger.Discard(), sender, 16, 2, time.Second)
	d.Start()

	for _, uri := range []string{"/events", "/events/1", "/events/2"} {
		d.Record(model.EndpointHitDto{URI: uri})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.ElementsMatch(t, []string{"/events", "/events/1", "/events/2"}, sender.sent())
}

func TestDispatcherDropsOldestWhenFull(t *testing.T) {
	sender := &recordingSender{}
	// Not started: nothing drains the queue.
	d := NewDispatcher(logger.Discard(), sender, 2, 1, time.Second)

	d.Record(model.EndpointHitDto{URI: "a"})
	d.Record(model.EndpointHitDto{URI: "b"})
	d.Record(model.EndpointHitDto{URI: "c"})

	d.Start()
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, []string{"b", "c"}, sender.sent())
}

func TestDispatcherRecordNeverBlocks(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	d := NewDispatcher(logger.Discard(), sender, 1, 1, time.Second)
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Record(model.EndpointHitDto{URI: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a stalled sender")
	}

	close(sender.release)
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherSurvivesFailures(t *testing.T) {
	sender := &recordingSender{fail: true}
	d := NewDispatcher(logger.Discard(), sender, 4, 1, time.Second)
	d.Start()

	d.Record(model.EndpointHitDto{URI: "/events"})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, []string{"/events"}, sender.sent())

	// Hits after shutdown are dropped, not panics.
	d.Record(model.EndpointHitDto{URI: "/late"})
	assert.Equal(t, []string{"/events"}, sender.sent())
}
