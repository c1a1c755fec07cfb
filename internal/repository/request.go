package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `id, event_id, requester_id, created, status`

// AdmissionTx is the set of request queries available while the event row is locked.
type AdmissionTx interface {
	Exists(ctx context.Context, eventID, requesterID uuid.UUID) (bool, error)
	CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error)
	Insert(ctx context.Context, req *model.ParticipationRequest) error
	FindForEvent(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]model.ParticipationRequest, error)
	SetStatus(ctx context.Context, ids []uuid.UUID, status model.RequestStatus) error
	Cancel(ctx context.Context, id uuid.UUID) (*model.ParticipationRequest, error)
}

// RequestRepository handles persistence for participation requests.
type RequestRepository struct {
	pool *pgxpool.Pool
	db   querier
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool, db: pool}
}

func scanRequest(row pgx.Row) (*model.ParticipationRequest, error) {
	var req model.ParticipationRequest
	var status string
	if err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Created, &status); err != nil {
		return nil, err
	}
	req.Status = model.RequestStatus(status)
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]model.ParticipationRequest, error) {
	defer rows.Close()

	var reqs []model.ParticipationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

// WithEventLock runs fn inside a transaction that holds a row lock on the event.
//
// Admission is check-then-act: count confirmed requests, then insert or
// update. Two transactions reading the count concurrently would both see free
// capacity and overbook. SELECT ... FOR UPDATE blocks every other admission
// for the same event until this transaction commits or rolls back, so the
// count fn observes is the count its writes are based on.
//
// Any error returned by fn rolls back every write fn made.
func (r *RequestRepository) WithEventLock(
	ctx context.Context,
	eventID uuid.UUID,
	fn func(ctx context.Context, event *model.Event, tx AdmissionTx) error,
) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	event, err := getEvent(ctx, tx, eventID, true)
	if err != nil {
		return err
	}

	if err = fn(ctx, event, &RequestRepository{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Exists reports whether the requester already has a request for the event.
func (r *RequestRepository) Exists(ctx context.Context, eventID, requesterID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM requests WHERE event_id = $1 AND requester_id = $2)`,
		eventID, requesterID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

// CountConfirmed counts CONFIRMED requests for one event at this moment.
func (r *RequestRepository) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

// Insert creates a request. A second request for the same (event, requester)
// pair fails with ErrDuplicate.
func (r *RequestRepository) Insert(ctx context.Context, req *model.ParticipationRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO requests (id, event_id, requester_id, created, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.EventID, req.RequesterID, req.Created, string(req.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// FindForEvent returns the requests among ids that belong to the event and
// locks them until the transaction ends.
func (r *RequestRepository) FindForEvent(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]model.ParticipationRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE event_id = $1 AND id = ANY($2)
		 ORDER BY created ASC, id
		 FOR UPDATE`,
		eventID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("find requests: %w", err)
	}
	return collectRequests(rows)
}

// SetStatus updates the status of every request in ids. Canceled requests
// are never touched: if any of ids is CANCELED it returns ErrRequestCanceled
// and the caller must roll back.
func (r *RequestRepository) SetStatus(ctx context.Context, ids []uuid.UUID, status model.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE requests SET status = $1 WHERE id = ANY($2) AND status <> 'CANCELED'`,
		string(status), ids,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return ErrRequestCanceled
	}
	return nil
}

// GetByID returns a single request or ErrNotFound.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ParticipationRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// Cancel marks a request CANCELED and returns it. Canceling twice is harmless.
// Callers run it inside WithEventLock so it cannot interleave with admission.
func (r *RequestRepository) Cancel(ctx context.Context, id uuid.UUID) (*model.ParticipationRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx,
		`UPDATE requests SET status = 'CANCELED' WHERE id = $1 RETURNING `+requestColumns, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cancel request: %w", err)
	}
	return req, nil
}

// ListByEvent returns all requests for an event, oldest first.
func (r *RequestRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.ParticipationRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE event_id = $1 ORDER BY created ASC, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by event: %w", err)
	}
	return collectRequests(rows)
}

// ListByRequester returns all requests made by a user, oldest first.
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.ParticipationRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = $1 ORDER BY created ASC, id`,
		requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return collectRequests(rows)
}

// CountConfirmedByEvents returns the confirmed count per event for a batch of
// events. Events with no confirmed requests are absent from the map.
func (r *RequestRepository) CountConfirmedByEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT event_id, COUNT(*) FROM requests
		 WHERE event_id = ANY($1) AND status = 'CONFIRMED'
		 GROUP BY event_id`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count confirmed by events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan confirmed count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
