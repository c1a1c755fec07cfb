package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

const (
	// OwnerLeadTime is how far ahead of an owner's create or edit the event must start.
	OwnerLeadTime = 2 * time.Hour
	// AdminLeadTime is how far ahead of an administrator's edit the event must start.
	AdminLeadTime = time.Hour
)

// EventService owns the event state machine:
//
//	PENDING -> PUBLISHED  (administrator)
//	PENDING -> CANCELED   (administrator or owner)
//
// PUBLISHED and CANCELED are absorbing.
type EventService struct {
	log        *slog.Logger
	events     EventStore
	users      UserStore
	categories CategoryStore
	composer   *Composer
	hits       HitRecorder
	appName    string
	now        func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	log *slog.Logger,
	events EventStore,
	users UserStore,
	categories CategoryStore,
	composer *Composer,
	hits HitRecorder,
	appName string,
) *EventService {
	return &EventService{
		log:        log,
		events:     events,
		users:      users,
		categories: categories,
		composer:   composer,
		hits:       hits,
		appName:    appName,
		now:        utcNow,
	}
}

func checkLeadTime(date, now time.Time, lead time.Duration) error {
	if date.Before(now.Add(lead)) {
		return apperr.Validation("event date must be at least %s after the current time, got %s",
			lead, date.UTC().Format(model.DateTimeLayout))
	}
	return nil
}

func (s *EventService) requireUser(ctx context.Context, id uuid.UUID) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user with id=%s was not found", id)
	}
	return nil
}

func (s *EventService) requireCategory(ctx context.Context, id uuid.UUID) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("category with id=%s was not found", id)
	}
	return nil
}

func (s *EventService) composeOne(ctx context.Context, e *model.Event) (*model.EventFull, error) {
	full, err := s.composer.Compose(ctx, []model.Event{*e})
	if err != nil {
		return nil, err
	}
	return &full[0], nil
}

func eventNotFound(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("event with id=%s was not found", id)
	}
	return err
}

// Create validates the draft and stores a PENDING event owned by ownerID.
func (s *EventService) Create(ctx context.Context, ownerID uuid.UUID, req model.NewEventRequest) (*model.EventFull, error) {
	now := s.now()
	if err := checkLeadTime(req.EventDate.Time, now, OwnerLeadTime); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.Category); err != nil {
		return nil, err
	}

	moderation := true
	if req.RequestModeration != nil {
		moderation = *req.RequestModeration
	}
	e := &model.Event{
		ID:                uuid.New(),
		Annotation:        req.Annotation,
		Description:       req.Description,
		Title:             req.Title,
		EventDate:         req.EventDate.UTC(),
		CreatedOn:         now,
		CategoryID:        req.Category,
		InitiatorID:       ownerID,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: moderation,
		State:             model.EventStatePending,
	}
	if req.Location != nil {
		e.Location = *req.Location
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("event created",
		slog.String("op", "service.EventService.Create"),
		slog.String("event_id", e.ID.String()),
		slog.String("initiator_id", ownerID.String()),
	)

	full, err := s.composer.ComposeNew(ctx, []model.Event{*e})
	if err != nil {
		return nil, err
	}
	return &full[0], nil
}

// applyPatch copies the non-nil fields of p onto e. Blank strings are ignored.
func applyPatch(e *model.Event, p model.UpdateEventRequest) {
	if p.Annotation != nil && strings.TrimSpace(*p.Annotation) != "" {
		e.Annotation = *p.Annotation
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		e.Description = *p.Description
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		e.Title = *p.Title
	}
	if p.Category != nil {
		e.CategoryID = *p.Category
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.UTC()
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
}

// UpdateByOwner applies an owner's patch. Owners may edit and self-cancel
// only while the event is PENDING.
func (s *EventService) UpdateByOwner(ctx context.Context, ownerID, eventID uuid.UUID, patch model.UpdateEventRequest) (*model.EventFull, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if patch.Category != nil {
		if err := s.requireCategory(ctx, *patch.Category); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updated, err := s.events.Modify(ctx, eventID, func(e *model.Event) error {
		if e.InitiatorID != ownerID {
			return apperr.Forbidden("user id=%s is not the initiator of event id=%s", ownerID, eventID)
		}
		if e.State != model.EventStatePending {
			return apperr.Conflict("only pending events can be changed, event id=%s is %s", eventID, e.State)
		}
		if patch.EventDate != nil {
			if err := checkLeadTime(patch.EventDate.Time, now, OwnerLeadTime); err != nil {
				return err
			}
		}

		next := e.State
		if patch.StateAction != nil {
			switch *patch.StateAction {
			case model.StateActionSendToReview:
				next = model.EventStatePending
			case model.StateActionCancelReview:
				next = model.EventStateCanceled
			default:
				return apperr.Conflict("state action %s is not available to the event owner", *patch.StateAction)
			}
		}

		applyPatch(e, patch)
		e.State = next
		return nil
	})
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}

	s.log.Info("event updated by owner",
		slog.String("op", "service.EventService.UpdateByOwner"),
		slog.String("event_id", eventID.String()),
		slog.String("state", string(updated.State)),
	)
	return s.composeOne(ctx, updated)
}

// UpdateByAdmin applies an administrator's patch and moderation decision.
// Only PENDING events can be edited; publishing stamps publishedOn once.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID uuid.UUID, patch model.UpdateEventRequest) (*model.EventFull, error) {
	if patch.Category != nil {
		if err := s.requireCategory(ctx, *patch.Category); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updated, err := s.events.Modify(ctx, eventID, func(e *model.Event) error {
		if e.State != model.EventStatePending {
			return apperr.Conflict("cannot change event id=%s because it is %s", eventID, e.State)
		}
		if patch.EventDate != nil {
			if err := checkLeadTime(patch.EventDate.Time, now, AdminLeadTime); err != nil {
				return err
			}
		}

		next := e.State
		var publishedOn *time.Time
		if patch.StateAction != nil {
			switch *patch.StateAction {
			case model.StateActionPublish:
				next = model.EventStatePublished
				publishedOn = &now
			case model.StateActionReject:
				next = model.EventStateCanceled
			default:
				return apperr.Conflict("state action %s is not available to an administrator", *patch.StateAction)
			}
		}

		applyPatch(e, patch)
		e.State = next
		if publishedOn != nil {
			e.PublishedOn = publishedOn
		}
		return nil
	})
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}

	s.log.Info("event updated by admin",
		slog.String("op", "service.EventService.UpdateByAdmin"),
		slog.String("event_id", eventID.String()),
		slog.String("state", string(updated.State)),
	)
	return s.composeOne(ctx, updated)
}

// GetForOwner returns an event in any state to its initiator.
func (s *EventService) GetForOwner(ctx context.Context, ownerID, eventID uuid.UUID) (*model.EventFull, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}
	if e.InitiatorID != ownerID {
		return nil, apperr.Forbidden("user id=%s is not the initiator of event id=%s", ownerID, eventID)
	}
	return s.composeOne(ctx, e)
}

// ListForOwner returns the events a user created.
func (s *EventService) ListForOwner(ctx context.Context, ownerID uuid.UUID, page model.Page) ([]model.EventShort, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByInitiator(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("list owner events: %w", err)
	}
	full, err := s.composer.Compose(ctx, events)
	if err != nil {
		return nil, err
	}
	return shorts(full), nil
}

// GetPublished returns a published event and records the read.
// Events in any other state are reported as not found.
func (s *EventService) GetPublished(ctx context.Context, eventID uuid.UUID, visit Visit) (*model.EventFull, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}
	if e.State != model.EventStatePublished {
		return nil, apperr.NotFound("event with id=%s was not found", eventID)
	}

	s.record(visit)
	return s.composeOne(ctx, e)
}

// ValidateRange checks a public date-range filter against now.
func ValidateRange(start, end *time.Time, now time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperr.Validation("rangeStart must not be after rangeEnd")
	}
	if end != nil && end.Before(now) {
		return apperr.Validation("rangeEnd must not be before the current time")
	}
	return nil
}

// ListPublished returns published events matching f and records the read.
func (s *EventService) ListPublished(ctx context.Context, f model.PublicEventFilter, visit Visit) ([]model.EventShort, error) {
	if err := ValidateRange(f.RangeStart, f.RangeEnd, s.now()); err != nil {
		return nil, err
	}
	switch f.Sort {
	case "", model.EventSortDate, model.EventSortViews:
	default:
		return nil, apperr.Validation("unknown sort %q", f.Sort)
	}

	events, err := s.events.ListPublic(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}

	s.record(visit)

	full, err := s.composer.Compose(ctx, events)
	if err != nil {
		return nil, err
	}
	out := shorts(full)
	if f.Sort == model.EventSortViews {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	}
	return out, nil
}

// ListForAdmin returns events in any state matching f.
func (s *EventService) ListForAdmin(ctx context.Context, f model.AdminEventFilter) ([]model.EventFull, error) {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeStart.After(*f.RangeEnd) {
		return nil, apperr.Validation("rangeStart must not be after rangeEnd")
	}
	for _, st := range f.States {
		if !st.Valid() {
			return nil, apperr.Validation("unknown event state %q", st)
		}
	}

	events, err := s.events.ListAdmin(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list admin events: %w", err)
	}
	return s.composer.Compose(ctx, events)
}

func (s *EventService) record(v Visit) {
	if s.hits == nil || v.URI == "" {
		return
	}
	s.hits.Record(model.EndpointHitDto{
		App:       s.appName,
		URI:       v.URI,
		IP:        v.IP,
		Timestamp: model.NewDateTime(s.now()),
	})
}

func shorts(full []model.EventFull) []model.EventShort {
	out := make([]model.EventShort, 0, len(full))
	for _, f := range full {
		out = append(out, f.Short())
	}
	return out
}
