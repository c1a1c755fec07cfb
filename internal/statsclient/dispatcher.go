package statsclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger/sl"
	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Sender delivers a single hit.
type Sender interface {
	Hit(ctx context.Context, hit model.EndpointHitDto) error
}

// Dispatcher forwards hits to a Sender from a bounded in-memory queue so
// that request handlers never wait on the stats service. When the queue is
// full the oldest queued hit is dropped. Failed sends are not retried.
type Dispatcher struct {
	log     *slog.Logger
	sender  Sender
	timeout time.Duration
	workers int

	queue chan model.EndpointHitDto
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher returns a Dispatcher. Call Start before Record.
func NewDispatcher(log *slog.Logger, sender Sender, queueSize, workers int, timeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		log:     log,
		sender:  sender,
		timeout: timeout,
		workers: workers,
		queue:   make(chan model.EndpointHitDto, queueSize),
	}
}

// Start launches the send workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Record queues hit for delivery. It never blocks.
func (d *Dispatcher) Record(hit model.EndpointHitDto) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		metrics.HitsDispatched.WithLabelValues("dropped").Inc()
		return
	}

	for {
		select {
		case d.queue <- hit:
			return
		default:
		}
		select {
		case <-d.queue:
			metrics.HitsDispatched.WithLabelValues("dropped").Inc()
		default:
		}
	}
}

// Shutdown stops accepting hits and waits until the queue is drained or ctx ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for hit := range d.queue {
		d.send(hit)
	}
}

func (d *Dispatcher) send(hit model.EndpointHitDto) {
	const op = "statsclient.Dispatcher.send"

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Hit(ctx, hit); err != nil {
		metrics.HitsDispatched.WithLabelValues("failed").Inc()
		d.log.Warn("failed to record hit",
			slog.String("op", op),
			slog.String("uri", hit.URI),
			sl.Err(err),
		)
		return
	}
	metrics.HitsDispatched.WithLabelValues("sent").Inc()
}
