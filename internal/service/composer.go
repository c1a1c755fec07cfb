package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/lib/logger/sl"
	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// EventURI is the analytics URI under which reads of an event are recorded.
func EventURI(id uuid.UUID) string {
	return "/events/" + id.String()
}

type confirmedCounter interface {
	CountConfirmedByEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type userLoader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)
}

type categoryLoader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Category, error)
}

// Composer builds externally visible event representations. It batch-loads
// categories, initiators, confirmed counts and view counts by id set, one
// query per kind regardless of how many events are composed.
type Composer struct {
	log        *slog.Logger
	confirmed  confirmedCounter
	users      userLoader
	categories categoryLoader
	views      ViewCounter
	cache      ViewCache
	timeout    time.Duration
	now        func() time.Time
}

// NewComposer constructs a Composer. cache may be nil.
func NewComposer(
	log *slog.Logger,
	confirmed confirmedCounter,
	users userLoader,
	categories categoryLoader,
	views ViewCounter,
	cache ViewCache,
	timeout time.Duration,
) *Composer {
	return &Composer{
		log:        log,
		confirmed:  confirmed,
		users:      users,
		categories: categories,
		views:      views,
		cache:      cache,
		timeout:    timeout,
		now:        utcNow,
	}
}

// Compose returns the full representation of events, in input order.
func (c *Composer) Compose(ctx context.Context, events []model.Event) ([]model.EventFull, error) {
	return c.compose(ctx, events, true)
}

// ComposeNew skips the view and confirmation lookups for events that were
// just created and cannot have either yet.
func (c *Composer) ComposeNew(ctx context.Context, events []model.Event) ([]model.EventFull, error) {
	return c.compose(ctx, events, false)
}

func (c *Composer) compose(ctx context.Context, events []model.Event, withCounts bool) ([]model.EventFull, error) {
	if len(events) == 0 {
		return []model.EventFull{}, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	userIDs := make([]uuid.UUID, 0, len(events))
	catIDs := make([]uuid.UUID, 0, len(events))
	seenUser := make(map[uuid.UUID]bool)
	seenCat := make(map[uuid.UUID]bool)
	for _, e := range events {
		ids = append(ids, e.ID)
		if !seenUser[e.InitiatorID] {
			seenUser[e.InitiatorID] = true
			userIDs = append(userIDs, e.InitiatorID)
		}
		if !seenCat[e.CategoryID] {
			seenCat[e.CategoryID] = true
			catIDs = append(catIDs, e.CategoryID)
		}
	}

	var (
		users     map[uuid.UUID]model.User
		cats      map[uuid.UUID]model.Category
		confirmed = map[uuid.UUID]int64{}
		views     = map[uuid.UUID]int64{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = c.users.GetByIDs(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = c.categories.GetByIDs(gctx, catIDs)
		return err
	})
	if withCounts {
		g.Go(func() error {
			var err error
			confirmed, err = c.confirmed.CountConfirmedByEvents(gctx, ids)
			return err
		})
		g.Go(func() error {
			views = c.viewCounts(gctx, events)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compose events: %w", err)
	}

	out := make([]model.EventFull, 0, len(events))
	for _, e := range events {
		u := users[e.InitiatorID]
		full := model.EventFull{
			ID:                e.ID,
			Annotation:        e.Annotation,
			Category:          cats[e.CategoryID],
			ConfirmedRequests: confirmed[e.ID],
			CreatedOn:         model.NewDateTime(e.CreatedOn),
			Description:       e.Description,
			EventDate:         model.NewDateTime(e.EventDate),
			Initiator:         model.UserShort{ID: e.InitiatorID, Name: u.Name},
			Location:          e.Location,
			Paid:              e.Paid,
			ParticipantLimit:  e.ParticipantLimit,
			RequestModeration: e.RequestModeration,
			State:             e.State,
			Title:             e.Title,
			Views:             views[e.ID],
		}
		if e.PublishedOn != nil {
			p := model.NewDateTime(*e.PublishedOn)
			full.PublishedOn = &p
		}
		out = append(out, full)
	}
	return out, nil
}

// viewCounts asks the analytics service for unique views over the window
// [earliest creation, now]. It never fails: on error it falls back to the
// cached counts, and to zero for anything not cached.
func (c *Composer) viewCounts(ctx context.Context, events []model.Event) map[uuid.UUID]int64 {
	const op = "service.Composer.viewCounts"
	log := c.log.With(slog.String("op", op))

	start := events[0].CreatedOn
	uris := make([]string, 0, len(events))
	byURI := make(map[string]uuid.UUID, len(events))
	for _, e := range events {
		if e.CreatedOn.Before(start) {
			start = e.CreatedOn
		}
		uri := EventURI(e.ID)
		uris = append(uris, uri)
		byURI[uri] = e.ID
	}

	counts := make(map[string]int64, len(uris))

	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	stats, err := c.views.Stats(qctx, start.Truncate(time.Second), c.now().Add(time.Second), uris, true)
	cancel()

	if err != nil {
		log.Warn("view stats unavailable, using fallback", sl.Err(err))
		source := "zero"
		if c.cache != nil {
			cached, cerr := c.cache.Get(ctx, uris)
			if cerr != nil {
				log.Warn("view cache read failed", sl.Err(cerr))
			} else {
				counts = cached
				source = "cache"
			}
		}
		metrics.ViewQueryFallbacks.WithLabelValues(source).Inc()
	} else {
		for _, s := range stats {
			if _, ok := byURI[s.URI]; ok {
				counts[s.URI] += s.Hits
			}
		}
		if c.cache != nil {
			fresh := make(map[string]int64, len(uris))
			for _, uri := range uris {
				fresh[uri] = counts[uri]
			}
			if perr := c.cache.Put(ctx, fresh); perr != nil {
				log.Warn("view cache write failed", sl.Err(perr))
			}
		}
	}

	out := make(map[uuid.UUID]int64, len(events))
	for uri, id := range byURI {
		out[id] = counts[uri]
	}
	return out
}
