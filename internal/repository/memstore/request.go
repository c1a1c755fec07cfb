package memstore

import (
	"context"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

type Requests struct{ db *DB }

// WithEventLock runs fn while holding the event lock. Writes made through
// the AdmissionTx are staged and applied only when fn returns nil.
func (s *Requests) WithEventLock(
	ctx context.Context,
	eventID uuid.UUID,
	fn func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error,
) error {
	lock := s.db.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	event, err := s.db.Events().GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	tx := &admissionTx{db: s.db, staged: make(map[uuid.UUID]*storedRequest)}
	if err := fn(ctx, event, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Requests) GetByID(_ context.Context, id uuid.UUID) (*model.ParticipationRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req := r.ParticipationRequest
	return &req, nil
}

func (s *Requests) ListByEvent(_ context.Context, eventID uuid.UUID) ([]model.ParticipationRequest, error) {
	return s.filter(func(r *storedRequest) bool { return r.EventID == eventID }), nil
}

func (s *Requests) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]model.ParticipationRequest, error) {
	return s.filter(func(r *storedRequest) bool { return r.RequesterID == requesterID }), nil
}

func (s *Requests) CountConfirmedByEvents(_ context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	want := idSet(eventIDs)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := make(map[uuid.UUID]int64, len(eventIDs))
	for _, r := range s.db.requests {
		if want[r.EventID] && r.Status == model.RequestStatusConfirmed {
			counts[r.EventID]++
		}
	}
	return counts, nil
}

func (s *Requests) filter(match func(*storedRequest) bool) []model.ParticipationRequest {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var found []*storedRequest
	for _, r := range s.db.requests {
		if match(r) {
			cp := *r
			found = append(found, &cp)
		}
	}
	return sortRequests(found)
}

// admissionTx reads committed rows overlaid with its own staged writes.
type admissionTx struct {
	db     *DB
	staged map[uuid.UUID]*storedRequest
}

func (tx *admissionTx) snapshot(match func(*storedRequest) bool) []*storedRequest {
	tx.db.mu.RLock()
	defer tx.db.mu.RUnlock()
	var out []*storedRequest
	for id, r := range tx.db.requests {
		if _, ok := tx.staged[id]; ok {
			continue
		}
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	for _, r := range tx.staged {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (tx *admissionTx) Exists(_ context.Context, eventID, requesterID uuid.UUID) (bool, error) {
	found := tx.snapshot(func(r *storedRequest) bool {
		return r.EventID == eventID && r.RequesterID == requesterID
	})
	return len(found) > 0, nil
}

func (tx *admissionTx) CountConfirmed(_ context.Context, eventID uuid.UUID) (int, error) {
	found := tx.snapshot(func(r *storedRequest) bool {
		return r.EventID == eventID && r.Status == model.RequestStatusConfirmed
	})
	return len(found), nil
}

func (tx *admissionTx) Insert(ctx context.Context, req *model.ParticipationRequest) error {
	dup, err := tx.Exists(ctx, req.EventID, req.RequesterID)
	if err != nil {
		return err
	}
	if dup {
		return repository.ErrDuplicate
	}
	tx.db.mu.Lock()
	seq := tx.db.nextSeq()
	tx.db.mu.Unlock()
	tx.staged[req.ID] = &storedRequest{ParticipationRequest: *req, seq: seq}
	return nil
}

func (tx *admissionTx) FindForEvent(_ context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]model.ParticipationRequest, error) {
	want := idSet(ids)
	return sortRequests(tx.snapshot(func(r *storedRequest) bool {
		return r.EventID == eventID && want[r.ID]
	})), nil
}

func (tx *admissionTx) SetStatus(_ context.Context, ids []uuid.UUID, status model.RequestStatus) error {
	want := idSet(ids)
	found := tx.snapshot(func(r *storedRequest) bool { return want[r.ID] })
	for _, r := range found {
		if r.Status == model.RequestStatusCanceled {
			return repository.ErrRequestCanceled
		}
	}
	for _, r := range found {
		r.Status = status
		tx.staged[r.ID] = r
	}
	return nil
}

func (tx *admissionTx) Cancel(_ context.Context, id uuid.UUID) (*model.ParticipationRequest, error) {
	found := tx.snapshot(func(r *storedRequest) bool { return r.ID == id })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	r := found[0]
	r.Status = model.RequestStatusCanceled
	tx.staged[id] = r
	req := r.ParticipationRequest
	return &req, nil
}

// commit applies the staged rows. It applies nothing if a staged status
// change would overwrite a committed CANCELED row.
func (tx *admissionTx) commit() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for id, r := range tx.staged {
		if cur, ok := tx.db.requests[id]; ok &&
			cur.Status == model.RequestStatusCanceled && r.Status != model.RequestStatusCanceled {
			return repository.ErrRequestCanceled
		}
	}
	for id, r := range tx.staged {
		tx.db.requests[id] = r
	}
	return nil
}
