package memstore

import (
	"context"
	"sort"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

type Events struct{ db *DB }

func (s *Events) Create(_ context.Context, e *model.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[e.ID]; ok {
		return repository.ErrDuplicate
	}
	s.db.events[e.ID] = *e
	return nil
}

func (s *Events) GetByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.db.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

// Modify holds the event lock while fn runs and stores the result only if fn succeeds.
func (s *Events) Modify(ctx context.Context, id uuid.UUID, fn func(e *model.Event) error) (*model.Event, error) {
	lock := s.db.eventLock(id)
	lock.Lock()
	defer lock.Unlock()

	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(e); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	s.db.events[id] = *e
	s.db.mu.Unlock()
	return e, nil
}

func (s *Events) ListByInitiator(_ context.Context, userID uuid.UUID, p model.Page) ([]model.Event, error) {
	return s.list(func(e model.Event) bool { return e.InitiatorID == userID }, newestFirst, p), nil
}

func (s *Events) ListPublic(_ context.Context, f model.PublicEventFilter) ([]model.Event, error) {
	cats := idSet(f.Categories)
	confirmed := s.confirmedCounts()

	match := func(e model.Event) bool {
		if e.State != model.EventStatePublished {
			return false
		}
		if f.Text != "" && !containsFold(e.Annotation, f.Text) && !containsFold(e.Description, f.Text) {
			return false
		}
		if len(cats) > 0 && !cats[e.CategoryID] {
			return false
		}
		if f.Paid != nil && e.Paid != *f.Paid {
			return false
		}
		if !inRange(e.EventDate, f.RangeStart, f.RangeEnd) {
			return false
		}
		if f.OnlyAvailable && !e.HasCapacity(confirmed[e.ID]) {
			return false
		}
		return true
	}
	return s.list(match, byEventDate, f.Page), nil
}

func (s *Events) ListAdmin(_ context.Context, f model.AdminEventFilter) ([]model.Event, error) {
	users := idSet(f.Users)
	cats := idSet(f.Categories)
	states := make(map[model.EventState]bool, len(f.States))
	for _, st := range f.States {
		states[st] = true
	}

	match := func(e model.Event) bool {
		if len(users) > 0 && !users[e.InitiatorID] {
			return false
		}
		if len(states) > 0 && !states[e.State] {
			return false
		}
		if len(cats) > 0 && !cats[e.CategoryID] {
			return false
		}
		return inRange(e.EventDate, f.RangeStart, f.RangeEnd)
	}
	return s.list(match, newestFirst, f.Page), nil
}

func newestFirst(a, b model.Event) bool {
	if !a.CreatedOn.Equal(b.CreatedOn) {
		return a.CreatedOn.After(b.CreatedOn)
	}
	return a.ID.String() < b.ID.String()
}

func byEventDate(a, b model.Event) bool {
	if !a.EventDate.Equal(b.EventDate) {
		return a.EventDate.Before(b.EventDate)
	}
	return a.ID.String() < b.ID.String()
}

func (s *Events) list(match func(model.Event) bool, less func(a, b model.Event) bool, p model.Page) []model.Event {
	s.db.mu.RLock()
	out := make([]model.Event, 0)
	for _, e := range s.db.events {
		if match(e) {
			out = append(out, e)
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	lo, hi := page(len(out), p)
	return out[lo:hi]
}

func (s *Events) confirmedCounts() map[uuid.UUID]int {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for _, r := range s.db.requests {
		if r.Status == model.RequestStatusConfirmed {
			counts[r.EventID]++
		}
	}
	return counts
}
