// Package service implements the event lifecycle, participation admission,
// view aggregation and the read composition that ties them together.
package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

// EventStore persists events. Modify holds a row lock for the duration of fn.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Modify(ctx context.Context, id uuid.UUID, fn func(e *model.Event) error) (*model.Event, error)
	ListByInitiator(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Event, error)
	ListPublic(ctx context.Context, f model.PublicEventFilter) ([]model.Event, error)
	ListAdmin(ctx context.Context, f model.AdminEventFilter) ([]model.Event, error)
}

// RequestStore persists participation requests. WithEventLock serialises
// every request write per event.
type RequestStore interface {
	WithEventLock(ctx context.Context, eventID uuid.UUID, fn func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.ParticipationRequest, error)
	CountConfirmedByEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Category, error)
}

// HitStore is the analytics log.
type HitStore interface {
	Insert(ctx context.Context, h *model.EndpointHit) error
	Stats(ctx context.Context, q model.StatsQuery) ([]model.ViewStats, error)
}

// HitRecorder accepts hits without blocking the caller.
type HitRecorder interface {
	Record(hit model.EndpointHitDto)
}

// ViewCounter answers view count queries against the analytics service.
type ViewCounter interface {
	Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]model.ViewStats, error)
}

// ViewCache keeps the last known view count per URI.
type ViewCache interface {
	Get(ctx context.Context, uris []string) (map[string]int64, error)
	Put(ctx context.Context, counts map[string]int64) error
}

// Visit identifies the caller of a public read, for hit recording.
type Visit struct {
	URI string
	IP  string
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
