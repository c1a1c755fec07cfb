// Package memstore is an in-memory implementation of the repository layer.
// It follows the PostgreSQL repositories' semantics closely enough to back
// service and handler tests without a database.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/google/uuid"
)

type storedRequest struct {
	model.ParticipationRequest
	seq int
}

// DB holds every table. The store types are views over one DB.
type DB struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]model.User
	categories map[uuid.UUID]model.Category
	events     map[uuid.UUID]model.Event
	requests   map[uuid.UUID]*storedRequest
	hits       []model.EndpointHit
	seq        int

	lockMu     sync.Mutex
	eventLocks map[uuid.UUID]*sync.Mutex
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:      make(map[uuid.UUID]model.User),
		categories: make(map[uuid.UUID]model.Category),
		events:     make(map[uuid.UUID]model.Event),
		requests:   make(map[uuid.UUID]*storedRequest),
		eventLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (db *DB) Users() *Users           { return &Users{db: db} }
func (db *DB) Categories() *Categories { return &Categories{db: db} }
func (db *DB) Events() *Events         { return &Events{db: db} }
func (db *DB) Requests() *Requests     { return &Requests{db: db} }
func (db *DB) Hits() *Hits             { return &Hits{db: db} }

// eventLock returns the mutex standing in for the event's row lock.
func (db *DB) eventLock(id uuid.UUID) *sync.Mutex {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()
	m, ok := db.eventLocks[id]
	if !ok {
		m = &sync.Mutex{}
		db.eventLocks[id] = m
	}
	return m
}

func (db *DB) nextSeq() int {
	db.seq++
	return db.seq
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func page(n int, p model.Page) (lo, hi int) {
	lo = p.From
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi = n
	if p.Size > 0 && lo+p.Size < n {
		hi = lo + p.Size
	}
	return lo, hi
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortRequests(reqs []*storedRequest) []model.ParticipationRequest {
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].Created.Equal(reqs[j].Created) {
			return reqs[i].Created.Before(reqs[j].Created)
		}
		return reqs[i].seq < reqs[j].seq
	})
	out := make([]model.ParticipationRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ParticipationRequest)
	}
	return out
}
