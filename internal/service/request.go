package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

type eventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// RequestService is the admission controller for participation requests.
//
// The confirmed count of an event never exceeds its participant limit unless
// the limit is 0. Every decision that depends on that count is made inside
// RequestStore.WithEventLock, and the count is always recomputed there.
type RequestService struct {
	log      *slog.Logger
	requests RequestStore
	events   eventGetter
	users    userChecker
	now      func() time.Time
}

// NewRequestService constructs a RequestService.
func NewRequestService(log *slog.Logger, requests RequestStore, events eventGetter, users userChecker) *RequestService {
	return &RequestService{
		log:      log,
		requests: requests,
		events:   events,
		users:    users,
		now:      utcNow,
	}
}

func (s *RequestService) requireUser(ctx context.Context, id uuid.UUID) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user with id=%s was not found", id)
	}
	return nil
}

// Submit creates a participation request for a published event. The request
// is CONFIRMED at once when the event has no moderation or no limit,
// otherwise PENDING.
func (s *RequestService) Submit(ctx context.Context, requesterID, eventID uuid.UUID) (*model.ParticipationRequestDto, error) {
	const op = "service.RequestService.Submit"

	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}

	var created model.ParticipationRequest
	err := s.requests.WithEventLock(ctx, eventID, func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error {
		dup, err := tx.Exists(ctx, eventID, requesterID)
		if err != nil {
			return err
		}
		if dup {
			return apperr.Conflict("user id=%s already requested participation in event id=%s", requesterID, eventID)
		}
		if event.InitiatorID == requesterID {
			return apperr.Conflict("the initiator cannot request participation in their own event")
		}
		if event.State != model.EventStatePublished {
			return apperr.Conflict("event id=%s is not published", eventID)
		}
		if !event.Unlimited() {
			confirmed, err := tx.CountConfirmed(ctx, eventID)
			if err != nil {
				return err
			}
			if !event.HasCapacity(confirmed) {
				return apperr.Conflict("participant limit of %d reached for event id=%s", event.ParticipantLimit, eventID)
			}
		}

		created = model.ParticipationRequest{
			ID:          uuid.New(),
			EventID:     eventID,
			RequesterID: requesterID,
			Created:     s.now(),
			Status:      model.RequestStatusPending,
		}
		if event.AutoConfirm() {
			created.Status = model.RequestStatusConfirmed
		}

		if err := tx.Insert(ctx, &created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict("user id=%s already requested participation in event id=%s", requesterID, eventID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}

	s.log.Info("participation request submitted",
		slog.String("op", op),
		slog.String("request_id", created.ID.String()),
		slog.String("event_id", eventID.String()),
		slog.String("status", string(created.Status)),
	)

	dto := created.Dto()
	return &dto, nil
}

// CancelOwn cancels the requester's own request. Canceling an already
// canceled request returns it unchanged. The cancel takes the event lock, so
// it is ordered against any ResolveBulk on the same event.
func (s *RequestService) CancelOwn(ctx context.Context, requesterID, requestID uuid.UUID) (*model.ParticipationRequestDto, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(requestID, err)
	}
	if req.RequesterID != requesterID {
		return nil, apperr.Forbidden("request id=%s does not belong to user id=%s", requestID, requesterID)
	}

	if req.Status != model.RequestStatusCanceled {
		var canceled *model.ParticipationRequest
		err = s.requests.WithEventLock(ctx, req.EventID, func(ctx context.Context, _ *model.Event, tx repository.AdmissionTx) error {
			var err error
			canceled, err = tx.Cancel(ctx, requestID)
			return err
		})
		if err != nil {
			return nil, requestNotFound(requestID, err)
		}
		req = canceled
	}

	dto := req.Dto()
	return &dto, nil
}

// ResolveBulk moves the listed requests of an event to CONFIRMED or REJECTED.
//
// The whole batch is one transaction under the event lock. It fails without
// changing anything when the limit is already reached, when any listed
// request is CANCELED, or when confirming the batch would push the confirmed
// count past the limit. Ids that do not belong to the event are ignored.
func (s *RequestService) ResolveBulk(ctx context.Context, ownerID, eventID uuid.UUID, upd model.StatusUpdateRequest) (*model.StatusUpdateResult, error) {
	const op = "service.RequestService.ResolveBulk"

	target := upd.Status
	if target != model.RequestStatusConfirmed && target != model.RequestStatusRejected {
		return nil, apperr.Validation("status must be CONFIRMED or REJECTED, got %q", target)
	}
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	ids := dedupe(upd.RequestIDs)
	result := &model.StatusUpdateResult{
		ConfirmedRequests: []model.ParticipationRequestDto{},
		RejectedRequests:  []model.ParticipationRequestDto{},
	}

	err := s.requests.WithEventLock(ctx, eventID, func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error {
		if event.InitiatorID != ownerID {
			return apperr.Forbidden("user id=%s is not the initiator of event id=%s", ownerID, eventID)
		}

		confirmed, err := tx.CountConfirmed(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.HasCapacity(confirmed) {
			return apperr.Conflict("participant limit of %d reached for event id=%s", event.ParticipantLimit, eventID)
		}

		reqs, err := tx.FindForEvent(ctx, eventID, ids)
		if err != nil {
			return err
		}

		touched := make([]uuid.UUID, 0, len(reqs))
		for i := range reqs {
			r := &reqs[i]
			if r.Status == model.RequestStatusCanceled {
				return apperr.Conflict("request id=%s is canceled and cannot be changed", r.ID)
			}

			switch {
			case target == model.RequestStatusConfirmed && r.Status != model.RequestStatusConfirmed:
				if !event.HasCapacity(confirmed) {
					return apperr.Conflict("confirming request id=%s would exceed the participant limit of %d",
						r.ID, event.ParticipantLimit)
				}
				confirmed++
			case target == model.RequestStatusRejected && r.Status == model.RequestStatusConfirmed:
				confirmed--
			}

			r.Status = target
			touched = append(touched, r.ID)
			if target == model.RequestStatusConfirmed {
				result.ConfirmedRequests = append(result.ConfirmedRequests, r.Dto())
			} else {
				result.RejectedRequests = append(result.RejectedRequests, r.Dto())
			}
		}

		return tx.SetStatus(ctx, touched, target)
	})
	if errors.Is(err, repository.ErrRequestCanceled) {
		return nil, apperr.Conflict("a listed request was canceled and cannot be changed")
	}
	if err != nil {
		return nil, eventNotFound(eventID, err)
	}

	s.log.Info("participation requests resolved",
		slog.String("op", op),
		slog.String("event_id", eventID.String()),
		slog.Int("confirmed", len(result.ConfirmedRequests)),
		slog.Int("rejected", len(result.RejectedRequests)),
	)
	return result, nil
}

// ListForEvent returns every request for an event to its initiator.
func (s *RequestService) ListForEvent(ctx context.Context, ownerID, eventID uuid.UUID) ([]model.ParticipationRequestDto, error) {
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

	reqs, err := s.requests.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event requests: %w", err)
	}
	return model.RequestDtos(reqs), nil
}

// ListForRequester returns the requests a user made.
func (s *RequestService) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]model.ParticipationRequestDto, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list user requests: %w", err)
	}
	return model.RequestDtos(reqs), nil
}

func requestNotFound(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("request with id=%s was not found", id)
	}
	return err
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
