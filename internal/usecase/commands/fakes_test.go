//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/infra"
	"travel-booking/internal/usecase/notify"
	"travel-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type storedJob struct {
	kind      string
	topic     string
	payload   []byte
	status    string
	lastError *string
}

type memState struct {
	listings    map[uuid.UUID]shared.ListingSnapshot
	users       map[uuid.UUID]shared.ContactSnapshot
	bookings    map[uuid.UUID]booking.Snapshot
	coupons     map[string]shared.CouponSnapshot
	idempotency map[uuid.UUID]shared.IdempotencyRecord
	jobs        map[uuid.UUID]storedJob
	order       []uuid.UUID
}

func (s *memState) clone() *memState {
	c := &memState{
		listings:    make(map[uuid.UUID]shared.ListingSnapshot, len(s.listings)),
		users:       make(map[uuid.UUID]shared.ContactSnapshot, len(s.users)),
		bookings:    make(map[uuid.UUID]booking.Snapshot, len(s.bookings)),
		coupons:     make(map[string]shared.CouponSnapshot, len(s.coupons)),
		idempotency: make(map[uuid.UUID]shared.IdempotencyRecord, len(s.idempotency)),
		jobs:        make(map[uuid.UUID]storedJob, len(s.jobs)),
		order:       append([]uuid.UUID(nil), s.order...),
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.idempotency {
		c.idempotency[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	return c
}

// memUoW serialises transactions with one mutex, which stands in for the listing row lock.
type memUoW struct {
	mu    sync.Mutex
	state *memState

	failNextCreate error
}

func newMemUoW() *memUoW {
	return &memUoW{state: &memState{
		listings:    map[uuid.UUID]shared.ListingSnapshot{},
		users:       map[uuid.UUID]shared.ContactSnapshot{},
		bookings:    map[uuid.UUID]booking.Snapshot{},
		coupons:     map[string]shared.CouponSnapshot{},
		idempotency: map[uuid.UUID]shared.IdempotencyRecord{},
		jobs:        map[uuid.UUID]storedJob{},
	}}
}

func (u *memUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	staged := u.state.clone()
	if err := fn(ctx, &memTx{uow: u, state: staged}); err != nil {
		return err
	}
	u.state = staged
	return nil
}

func (u *memUoW) CommandReads() shared.CommandReads {
	return memReads{uow: u}
}

func (u *memUoW) Idempotency() shared.IdempotencyRepository {
	return memIdempotency{uow: u}
}

func (u *memUoW) withState(fn func(s *memState)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u.state)
}

func (u *memUoW) bookingCount() int {
	var n int
	u.withState(func(s *memState) { n = len(s.bookings) })
	return n
}

func (u *memUoW) coupon(code string) shared.CouponSnapshot {
	var c shared.CouponSnapshot
	u.withState(func(s *memState) { c = s.coupons[code] })
	return c
}

func (u *memUoW) booking(id uuid.UUID) booking.Snapshot {
	var b booking.Snapshot
	u.withState(func(s *memState) { b = s.bookings[id] })
	return b
}

func (u *memUoW) jobCount() int {
	var n int
	u.withState(func(s *memState) { n = len(s.jobs) })
	return n
}

func (u *memUoW) idempotencyRecord(key uuid.UUID) (shared.IdempotencyRecord, bool) {
	var rec shared.IdempotencyRecord
	var ok bool
	u.withState(func(s *memState) { rec, ok = s.idempotency[key] })
	return rec, ok
}

type memTx struct {
	uow   *memUoW
	state *memState
}

func (t *memTx) Listings() shared.ListingRepository           { return memListings{state: t.state} }
func (t *memTx) Bookings() shared.BookingRepository           { return memBookings{tx: t} }
func (t *memTx) Coupons() shared.CouponRepository             { return memCoupons{state: t.state} }
func (t *memTx) Idempotency() shared.IdempotencyRepository    { return memTxIdempotency{state: t.state} }
func (t *memTx) Notifications() shared.NotificationRepository { return memJobs{state: t.state} }
func (t *memTx) Reads() shared.CommandReads                   { return memTxReads{state: t.state} }

type memListings struct{ state *memState }

func (r memListings) LockForBooking(_ context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	l, ok := r.state.listings[id]
	if !ok {
		return nil, infra.NotFound("listing not found")
	}
	return &l, nil
}

type memBookings struct{ tx *memTx }

func (r memBookings) Create(_ context.Context, b *booking.Booking) error {
	if err := r.tx.uow.failNextCreate; err != nil {
		r.tx.uow.failNextCreate = nil
		return err
	}
	r.tx.state.bookings[b.ID()] = snapshotOf(b)
	r.tx.state.order = append(r.tx.state.order, b.ID())
	return nil
}

func (r memBookings) FindOccupiedUnits(_ context.Context, listingID uuid.UUID, dr booking.DateRange) ([]booking.UnitRef, error) {
	var refs []booking.UnitRef
	for _, id := range r.tx.state.order {
		b := r.tx.state.bookings[id]
		if b.ListingID != listingID || !b.Status.HoldsUnits() || !b.DateRange.Overlaps(dr) {
			continue
		}
		for _, item := range b.Items {
			refs = append(refs, item.Unit)
		}
	}
	return refs, nil
}

func (r memBookings) FindForUpdate(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.tx.state.bookings[id]
	if !ok {
		return nil, infra.NotFound("booking not found")
	}
	return booking.Reconstruct(b), nil
}

func (r memBookings) UpdateStatus(_ context.Context, b *booking.Booking) error {
	stored, ok := r.tx.state.bookings[b.ID()]
	if !ok {
		return infra.NotFound("booking not found")
	}
	stored.Status = b.Status()
	stored.UpdatedAt = b.UpdatedAt()
	r.tx.state.bookings[b.ID()] = stored
	return nil
}

type memCoupons struct{ state *memState }

func (r memCoupons) FindByCode(_ context.Context, code string) (*shared.CouponSnapshot, error) {
	c, ok := r.state.coupons[code]
	if !ok {
		return nil, infra.NotFound("coupon not found")
	}
	return &c, nil
}

func (r memCoupons) ConsumeUse(_ context.Context, id uuid.UUID) (bool, error) {
	for code, c := range r.state.coupons {
		if c.ID != id {
			continue
		}
		if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
			return false, nil
		}
		c.UsedCount++
		r.state.coupons[code] = c
		return true, nil
	}
	return false, nil
}

type memJobs struct{ state *memState }

func (r memJobs) CreateJob(_ context.Context, kind, topic string, payload []byte, _ time.Time) (uuid.UUID, error) {
	id := uuid.New()
	r.state.jobs[id] = storedJob{kind: kind, topic: topic, payload: payload, status: shared.NotificationStatusQueued}
	return id, nil
}

func (r memJobs) MarkStatus(_ context.Context, jobID uuid.UUID, status string, lastError *string) error {
	j, ok := r.state.jobs[jobID]
	if !ok {
		return infra.NotFound("job not found")
	}
	j.status = status
	j.lastError = lastError
	r.state.jobs[jobID] = j
	return nil
}

type memTxReads struct{ state *memState }

func (r memTxReads) UserContact(_ context.Context, id uuid.UUID) (*shared.ContactSnapshot, error) {
	c, ok := r.state.users[id]
	if !ok {
		return nil, infra.NotFound("user not found")
	}
	return &c, nil
}

type memReads struct{ uow *memUoW }

func (r memReads) UserContact(ctx context.Context, id uuid.UUID) (*shared.ContactSnapshot, error) {
	var (
		c   *shared.ContactSnapshot
		err error
	)
	r.uow.withState(func(s *memState) { c, err = memTxReads{state: s}.UserContact(ctx, id) })
	return c, err
}

// memTxIdempotency runs inside a transaction; the state lock is already held.
type memTxIdempotency struct{ state *memState }

func (r memTxIdempotency) TryInsert(_ context.Context, key, userID uuid.UUID, _ string, requestHash string, expiresAt time.Time) (bool, error) {
	if _, exists := r.state.idempotency[key]; exists {
		return false, nil
	}
	r.state.idempotency[key] = shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      shared.IdempotencyStatusProcessing,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r memTxIdempotency) Get(_ context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := r.state.idempotency[key]
	if !ok || rec.UserID != userID {
		return nil, infra.NotFound("idempotency key not found")
	}
	return &rec, nil
}

func (r memTxIdempotency) ClaimExpired(_ context.Context, key, userID uuid.UUID, requestHash string, now, expiresAt time.Time) (bool, error) {
	rec, ok := r.state.idempotency[key]
	if !ok || rec.UserID != userID || !now.After(rec.ExpiresAt) {
		return false, nil
	}
	r.state.idempotency[key] = shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      shared.IdempotencyStatusProcessing,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r memTxIdempotency) Complete(_ context.Context, key, userID, bookingID uuid.UUID) error {
	rec, ok := r.state.idempotency[key]
	if !ok || rec.UserID != userID {
		return infra.NotFound("idempotency key not found")
	}
	rec.Status = shared.IdempotencyStatusCompleted
	rec.ResultBookingID = &bookingID
	r.state.idempotency[key] = rec
	return nil
}

func (r memTxIdempotency) Release(_ context.Context, key, userID uuid.UUID) error {
	if rec, ok := r.state.idempotency[key]; ok && rec.UserID == userID && rec.Status == shared.IdempotencyStatusProcessing {
		delete(r.state.idempotency, key)
	}
	return nil
}

// memIdempotency is the pool-bound variant that takes the lock per call.
type memIdempotency struct{ uow *memUoW }

func (r memIdempotency) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	var (
		ok  bool
		err error
	)
	r.uow.withState(func(s *memState) {
		ok, err = memTxIdempotency{state: s}.TryInsert(ctx, key, userID, endpoint, requestHash, expiresAt)
	})
	return ok, err
}

func (r memIdempotency) Get(ctx context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		rec *shared.IdempotencyRecord
		err error
	)
	r.uow.withState(func(s *memState) { rec, err = memTxIdempotency{state: s}.Get(ctx, key, userID) })
	return rec, err
}

func (r memIdempotency) ClaimExpired(ctx context.Context, key, userID uuid.UUID, requestHash string, now, expiresAt time.Time) (bool, error) {
	var (
		ok  bool
		err error
	)
	r.uow.withState(func(s *memState) {
		ok, err = memTxIdempotency{state: s}.ClaimExpired(ctx, key, userID, requestHash, now, expiresAt)
	})
	return ok, err
}

func (r memIdempotency) Complete(ctx context.Context, key, userID, bookingID uuid.UUID) error {
	var err error
	r.uow.withState(func(s *memState) { err = memTxIdempotency{state: s}.Complete(ctx, key, userID, bookingID) })
	return err
}

func (r memIdempotency) Release(ctx context.Context, key, userID uuid.UUID) error {
	var err error
	r.uow.withState(func(s *memState) { err = memTxIdempotency{state: s}.Release(ctx, key, userID) })
	return err
}

type recordingDispatcher struct {
	mu      sync.Mutex
	notices []notify.BookingNotice
}

func (d *recordingDispatcher) DispatchAsync(_ context.Context, n notify.BookingNotice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, n)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notices)
}

func (d *recordingDispatcher) last() notify.BookingNotice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notices[len(d.notices)-1]
}

func snapshotOf(b *booking.Booking) booking.Snapshot {
	return booking.Snapshot{
		ID:          b.ID(),
		ListingID:   b.ListingID(),
		VendorID:    b.VendorID(),
		CustomerID:  b.CustomerID(),
		ServiceType: b.ServiceType(),
		DateRange:   b.DateRange(),
		Items:       b.Items(),
		Guests:      b.Guests(),
		Pricing:     b.Pricing(),
		CouponID:    b.CouponID(),
		CouponCode:  b.CouponCode(),
		Status:      b.Status(),
		Note:        b.Note(),
		CreatedAt:   b.CreatedAt(),
		UpdatedAt:   b.UpdatedAt(),
	}
}
