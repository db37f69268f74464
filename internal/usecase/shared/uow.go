package shared

import (
	"context"
	"time"

	"travel-booking/internal/domain/booking"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
	// Idempotency: key bookkeeping that must survive a rolled back booking transaction
	Idempotency() IdempotencyRepository
}

type Tx interface {
	Listings() ListingRepository
	Bookings() BookingRepository
	Coupons() CouponRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Reads() CommandReads
}

type CommandReads interface {
	UserContact(ctx context.Context, userID uuid.UUID) (*ContactSnapshot, error)
}

type ListingRepository interface {
	// LockForBooking takes a row lock on the listing for the rest of the transaction.
	LockForBooking(ctx context.Context, id uuid.UUID) (*ListingSnapshot, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindOccupiedUnits(ctx context.Context, listingID uuid.UUID, r booking.DateRange) ([]booking.UnitRef, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, b *booking.Booking) error
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*CouponSnapshot, error)
	// ConsumeUse returns false when the usage limit was reached concurrently.
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	ClaimExpired(ctx context.Context, key, userID uuid.UUID, requestHash string, now, expiresAt time.Time) (bool, error)
	Complete(ctx context.Context, key, userID, bookingID uuid.UUID) error
	Release(ctx context.Context, key, userID uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) (uuid.UUID, error)
	MarkStatus(ctx context.Context, jobID uuid.UUID, status string, lastError *string) error
}
