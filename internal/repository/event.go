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

const eventColumns = `e.id, e.annotation, e.description, e.title, e.event_date, e.created_on, e.published_on,
	e.category_id, e.initiator_id, e.lat, e.lon, e.paid, e.participant_limit, e.request_moderation, e.state`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	var state string
	err := row.Scan(
		&e.ID, &e.Annotation, &e.Description, &e.Title, &e.EventDate, &e.CreatedOn, &e.PublishedOn,
		&e.CategoryID, &e.InitiatorID, &e.Location.Lat, &e.Location.Lon, &e.Paid, &e.ParticipantLimit,
		&e.RequestModeration, &state,
	)
	if err != nil {
		return nil, err
	}
	e.State = model.EventState(state)
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// getEvent loads one event, optionally taking a row lock inside a transaction.
func getEvent(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	e, err := scanEvent(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, annotation, description, title, event_date, created_on, published_on,
			category_id, initiator_id, lat, lon, paid, participant_limit, request_moderation, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.Annotation, e.Description, e.Title, e.EventDate, e.CreatedOn, e.PublishedOn,
		e.CategoryID, e.InitiatorID, e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit,
		e.RequestModeration, string(e.State),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return getEvent(ctx, r.db, id, false)
}

// Modify loads the event under a row lock, applies fn and writes the result
// back in the same transaction. An error from fn rolls everything back.
//
// Owner edits, administrator moderation and participation admission all
// serialise on this lock, so a state check inside fn cannot race a concurrent
// transition.
func (r *EventRepository) Modify(ctx context.Context, id uuid.UUID, fn func(e *model.Event) error) (_ *model.Event, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	e, err := getEvent(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err = fn(e); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET annotation = $2, description = $3, title = $4, event_date = $5,
			published_on = $6, category_id = $7, lat = $8, lon = $9, paid = $10,
			participant_limit = $11, request_moderation = $12, state = $13
		 WHERE id = $1`,
		e.ID, e.Annotation, e.Description, e.Title, e.EventDate, e.PublishedOn, e.CategoryID,
		e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit, e.RequestModeration, string(e.State),
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return e, nil
}

// ListByInitiator returns the events created by a user, newest first.
func (r *EventRepository) ListByInitiator(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events e
		 WHERE e.initiator_id = $1
		 ORDER BY e.created_on DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.Size, page.From,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by initiator: %w", err)
	}
	return collectEvents(rows)
}

// ListPublic returns published events matching f ordered by event date.
func (r *EventRepository) ListPublic(ctx context.Context, f model.PublicEventFilter) ([]model.Event, error) {
	var p predicates
	p.addRaw(`e.state = 'PUBLISHED'`)
	if f.Text != "" {
		p.add(`(e.annotation ILIKE ? OR e.description ILIKE ?)`, likePattern(f.Text))
	}
	if len(f.Categories) > 0 {
		p.add(`e.category_id = ANY(?)`, f.Categories)
	}
	if f.Paid != nil {
		p.add(`e.paid = ?`, *f.Paid)
	}
	if f.RangeStart != nil {
		p.add(`e.event_date >= ?`, *f.RangeStart)
	}
	if f.RangeEnd != nil {
		p.add(`e.event_date <= ?`, *f.RangeEnd)
	}
	if f.OnlyAvailable {
		p.addRaw(`(e.participant_limit = 0 OR e.participant_limit >
			(SELECT COUNT(*) FROM requests r WHERE r.event_id = e.id AND r.status = 'CONFIRMED'))`)
	}

	query := `SELECT ` + eventColumns + ` FROM events e` + p.where() +
		` ORDER BY e.event_date ASC, e.id` + p.limit(f.Page.Size, f.Page.From)

	rows, err := r.db.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	return collectEvents(rows)
}

// ListAdmin returns events in any state matching f.
func (r *EventRepository) ListAdmin(ctx context.Context, f model.AdminEventFilter) ([]model.Event, error) {
	var p predicates
	if len(f.Users) > 0 {
		p.add(`e.initiator_id = ANY(?)`, f.Users)
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		p.add(`e.state = ANY(?)`, states)
	}
	if len(f.Categories) > 0 {
		p.add(`e.category_id = ANY(?)`, f.Categories)
	}
	if f.RangeStart != nil {
		p.add(`e.event_date >= ?`, *f.RangeStart)
	}
	if f.RangeEnd != nil {
		p.add(`e.event_date <= ?`, *f.RangeEnd)
	}

	query := `SELECT ` + eventColumns + ` FROM events e` + p.where() +
		` ORDER BY e.created_on DESC, e.id` + p.limit(f.Page.Size, f.Page.From)

	rows, err := r.db.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list admin events: %w", err)
	}
	return collectEvents(rows)
}
