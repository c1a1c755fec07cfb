package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedCount(t *testing.T, e *env, eventID uuid.UUID) int64 {
	t.Helper()
	counts, err := e.db.Requests().CountConfirmedByEvents(context.Background(), []uuid.UUID{eventID})
	require.NoError(t, err)
	return counts[eventID]
}

func TestModeratedEventScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 2, true)

	var reqs []uuid.UUID
	for i := 0; i < 3; i++ {
		r, err := e.requests.Submit(ctx, e.user(t, fmt.Sprintf("guest%d", i)), id)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusPending, r.Status)
		reqs = append(reqs, r.ID)
	}

	res, err := e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: reqs[:2],
		Status:     model.RequestStatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, res.ConfirmedRequests, 2)
	assert.Empty(t, res.RejectedRequests)
	assert.ElementsMatch(t, reqs[:2], []uuid.UUID{res.ConfirmedRequests[0].ID, res.ConfirmedRequests[1].ID})

	_, err = e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: reqs[2:],
		Status:     model.RequestStatusConfirmed,
	})
	requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, int64(2), confirmedCount(t, e, id))

	ev, err := e.events.GetForOwner(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ev.ConfirmedRequests)
}

func TestUnlimitedEventAutoConfirms(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")

	for _, moderation := range []bool{true, false} {
		id := e.publishedEvent(t, owner, 0, moderation)
		for i := 0; i < 3; i++ {
			r, err := e.requests.Submit(ctx, e.user(t, fmt.Sprintf("guest-%t-%d", moderation, i)), id)
			require.NoError(t, err)
			assert.Equal(t, model.RequestStatusConfirmed, r.Status)
		}
	}
}

func TestSubmitConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	guest := e.user(t, "guest")
	published := e.publishedEvent(t, owner, 1, false)
	pending := e.pendingEvent(t, owner, 0, true)

	_, err := e.requests.Submit(ctx, owner, published)
	requireKind(t, err, apperr.KindConflict)

	_, err = e.requests.Submit(ctx, guest, pending)
	requireKind(t, err, apperr.KindConflict)

	r, err := e.requests.Submit(ctx, guest, published)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusConfirmed, r.Status)

	_, err = e.requests.Submit(ctx, guest, published)
	requireKind(t, err, apperr.KindConflict)

	_, err = e.requests.Submit(ctx, e.user(t, "late"), published)
	requireKind(t, err, apperr.KindConflict)

	_, err = e.requests.Submit(ctx, uuid.New(), published)
	requireKind(t, err, apperr.KindNotFound)

	_, err = e.requests.Submit(ctx, guest, uuid.New())
	requireKind(t, err, apperr.KindNotFound)
}

func TestDuplicateAfterCancelStillConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	guest := e.user(t, "guest")
	id := e.publishedEvent(t, owner, 0, true)

	r, err := e.requests.Submit(ctx, guest, id)
	require.NoError(t, err)
	_, err = e.requests.CancelOwn(ctx, guest, r.ID)
	require.NoError(t, err)

	_, err = e.requests.Submit(ctx, guest, id)
	requireKind(t, err, apperr.KindConflict)
}

func TestCancelOwnIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	guest := e.user(t, "guest")
	id := e.publishedEvent(t, owner, 0, true)

	r, err := e.requests.Submit(ctx, guest, id)
	require.NoError(t, err)

	first, err := e.requests.CancelOwn(ctx, guest, r.ID)
	require.NoError(t, err)
	second, err := e.requests.CancelOwn(ctx, guest, r.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusCanceled, first.Status)
	assert.Equal(t, *first, *second)
	assert.Zero(t, confirmedCount(t, e, id))

	_, err = e.requests.CancelOwn(ctx, owner, r.ID)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.requests.CancelOwn(ctx, guest, uuid.New())
	requireKind(t, err, apperr.KindNotFound)
}

func TestResolveBulkRejectsCanceledTargets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	a := e.user(t, "a")
	b := e.user(t, "b")
	id := e.publishedEvent(t, owner, 5, true)

	ra, err := e.requests.Submit(ctx, a, id)
	require.NoError(t, err)
	rb, err := e.requests.Submit(ctx, b, id)
	require.NoError(t, err)
	_, err = e.requests.CancelOwn(ctx, b, rb.ID)
	require.NoError(t, err)

	_, err = e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: []uuid.UUID{ra.ID, rb.ID},
		Status:     model.RequestStatusConfirmed,
	})
	requireKind(t, err, apperr.KindConflict)

	got, err := e.db.Requests().GetByID(ctx, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, got.Status, "failed batch must not apply partially")
}

func TestResolveBulkCapacityIsCheckedPerItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 2, true)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r, err := e.requests.Submit(ctx, e.user(t, fmt.Sprintf("g%d", i)), id)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	_, err := e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: ids,
		Status:     model.RequestStatusConfirmed,
	})
	requireKind(t, err, apperr.KindConflict)
	assert.Zero(t, confirmedCount(t, e, id), "the whole batch rolls back")
}

func TestResolveBulkReject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	guest := e.user(t, "guest")
	id := e.publishedEvent(t, owner, 3, true)
	otherEvent := e.publishedEvent(t, owner, 3, true)

	r, err := e.requests.Submit(ctx, guest, id)
	require.NoError(t, err)
	foreign, err := e.requests.Submit(ctx, guest, otherEvent)
	require.NoError(t, err)

	res, err := e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: []uuid.UUID{r.ID, foreign.ID, r.ID},
		Status:     model.RequestStatusRejected,
	})
	require.NoError(t, err)
	assert.Empty(t, res.ConfirmedRequests)
	require.Len(t, res.RejectedRequests, 1)
	assert.Equal(t, r.ID, res.RejectedRequests[0].ID)
	assert.Equal(t, model.RequestStatusRejected, res.RejectedRequests[0].Status)

	got, err := e.db.Requests().GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, got.Status, "requests of other events are ignored")
}

func TestResolveBulkAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	id := e.publishedEvent(t, owner, 3, true)

	upd := model.StatusUpdateRequest{RequestIDs: []uuid.UUID{uuid.New()}, Status: model.RequestStatusConfirmed}

	_, err := e.requests.ResolveBulk(ctx, other, id, upd)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.requests.ResolveBulk(ctx, owner, uuid.New(), upd)
	requireKind(t, err, apperr.KindNotFound)

	_, err = e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: []uuid.UUID{uuid.New()},
		Status:     model.RequestStatusCanceled,
	})
	requireKind(t, err, apperr.KindValidation)
}

func TestConcurrentSubmitNeverOverbooks(t *testing.T) {
	const (
		limit      = 5
		submitters = 40
	)
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, limit, false)

	guests := make([]uuid.UUID, submitters)
	for i := range guests {
		guests[i] = e.user(t, fmt.Sprintf("guest%02d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		conflicts int
	)
	for _, g := range guests {
		wg.Add(1)
		go func(g uuid.UUID) {
			defer wg.Done()
			r, err := e.requests.Submit(ctx, g, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if apperr.KindOf(err) == apperr.KindConflict {
					conflicts++
				}
				return
			}
			if r.Status == model.RequestStatusConfirmed {
				confirmed++
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, limit, confirmed)
	assert.Equal(t, submitters-limit, conflicts)
	assert.Equal(t, int64(limit), confirmedCount(t, e, id))
}

func TestConcurrentResolveNeverOverbooks(t *testing.T) {
	const limit = 3
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, limit, true)

	var ids []uuid.UUID
	for i := 0; i < 10; i++ {
		r, err := e.requests.Submit(ctx, e.user(t, fmt.Sprintf("g%d", i)), id)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	for _, rid := range ids {
		wg.Add(1)
		go func(rid uuid.UUID) {
			defer wg.Done()
			_, _ = e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
				RequestIDs: []uuid.UUID{rid},
				Status:     model.RequestStatusConfirmed,
			})
		}(rid)
	}
	wg.Wait()

	assert.Equal(t, int64(limit), confirmedCount(t, e, id))
}

// hookedRequests runs afterFind once, right after the first FindForEvent
// inside an admission transaction.
type hookedRequests struct {
	RequestStore
	once      sync.Once
	afterFind func()
}

func (h *hookedRequests) WithEventLock(
	ctx context.Context,
	eventID uuid.UUID,
	fn func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error,
) error {
	return h.RequestStore.WithEventLock(ctx, eventID, func(ctx context.Context, event *model.Event, tx repository.AdmissionTx) error {
		return fn(ctx, event, &hookedTx{AdmissionTx: tx, owner: h})
	})
}

type hookedTx struct {
	repository.AdmissionTx
	owner *hookedRequests
}

func (t *hookedTx) FindForEvent(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]model.ParticipationRequest, error) {
	reqs, err := t.AdmissionTx.FindForEvent(ctx, eventID, ids)
	t.owner.once.Do(t.owner.afterFind)
	return reqs, err
}

func TestCancelDuringResolveStaysCanceled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	guest := e.user(t, "guest")
	id := e.publishedEvent(t, owner, 5, true)

	r, err := e.requests.Submit(ctx, guest, id)
	require.NoError(t, err)

	type result struct {
		dto *model.ParticipationRequestDto
		err error
	}
	canceled := make(chan result, 1)
	hooked := &hookedRequests{RequestStore: e.db.Requests()}
	hooked.afterFind = func() {
		started := make(chan struct{})
		go func() {
			close(started)
			dto, err := e.requests.CancelOwn(ctx, guest, r.ID)
			canceled <- result{dto, err}
		}()
		<-started
		// Give the cancel time to finish if nothing holds it back.
		time.Sleep(50 * time.Millisecond)
	}
	resolver := NewRequestService(e.requests.log, hooked, e.db.Events(), e.db.Users())

	res, err := resolver.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
		RequestIDs: []uuid.UUID{r.ID},
		Status:     model.RequestStatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, res.ConfirmedRequests, 1)

	c := <-canceled
	require.NoError(t, c.err)
	assert.Equal(t, model.RequestStatusCanceled, c.dto.Status)

	got, err := e.db.Requests().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCanceled, got.Status, "a reported cancel must stick")
	assert.Zero(t, confirmedCount(t, e, id))
}

func TestConcurrentCancelAndResolve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	id := e.publishedEvent(t, owner, 100, true)

	type pair struct{ guest, request uuid.UUID }
	var pairs []pair
	for i := 0; i < 20; i++ {
		g := e.user(t, fmt.Sprintf("g%02d", i))
		r, err := e.requests.Submit(ctx, g, id)
		require.NoError(t, err)
		pairs = append(pairs, pair{g, r.ID})
	}

	var wg sync.WaitGroup
	for _, p := range pairs {
		wg.Add(2)
		go func(p pair) {
			defer wg.Done()
			dto, err := e.requests.CancelOwn(ctx, p.guest, p.request)
			if assert.NoError(t, err) {
				assert.Equal(t, model.RequestStatusCanceled, dto.Status)
			}
		}(p)
		go func(p pair) {
			defer wg.Done()
			_, err := e.requests.ResolveBulk(ctx, owner, id, model.StatusUpdateRequest{
				RequestIDs: []uuid.UUID{p.request},
				Status:     model.RequestStatusConfirmed,
			})
			if err != nil {
				assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "unexpected error: %v", err)
			}
		}(p)
	}
	wg.Wait()

	for _, p := range pairs {
		got, err := e.db.Requests().GetByID(ctx, p.request)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusCanceled, got.Status)
	}
	assert.Zero(t, confirmedCount(t, e, id))
}

func TestRequestListings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	other := e.user(t, "other")
	guest := e.user(t, "guest")
	id := e.publishedEvent(t, owner, 0, true)

	_, err := e.requests.Submit(ctx, guest, id)
	require.NoError(t, err)

	forEvent, err := e.requests.ListForEvent(ctx, owner, id)
	require.NoError(t, err)
	require.Len(t, forEvent, 1)

	_, err = e.requests.ListForEvent(ctx, other, id)
	requireKind(t, err, apperr.KindForbidden)

	mine, err := e.requests.ListForRequester(ctx, guest)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].Event)

	none, err := e.requests.ListForRequester(ctx, other)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
