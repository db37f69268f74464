package booking

import (
	"time"

	"travel-booking/internal/domain/listing"
	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatusTransition = errs.New("invalid booking status transition")
	ErrBookingAlreadyCancelled = errs.New("booking is already cancelled")
)

type Booking struct {
	id          uuid.UUID
	listingID   uuid.UUID
	vendorID    uuid.UUID
	customerID  uuid.UUID
	serviceType listing.ServiceType
	dateRange   DateRange
	items       []LineItem
	guests      *int
	pricing     Pricing
	couponID    *uuid.UUID
	couponCode  *string
	status      Status
	note        Note
	createdAt   time.Time
	updatedAt   time.Time
}

type Snapshot struct {
	ID          uuid.UUID
	ListingID   uuid.UUID
	VendorID    uuid.UUID
	CustomerID  uuid.UUID
	ServiceType listing.ServiceType
	DateRange   DateRange
	Items       []LineItem
	Guests      *int
	Pricing     Pricing
	CouponID    *uuid.UUID
	CouponCode  *string
	Status      Status
	Note        Note
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reconstruct rebuilds a persisted booking without re-running creation rules.
func Reconstruct(s Snapshot) *Booking {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return &Booking{
		id:          s.ID,
		listingID:   s.ListingID,
		vendorID:    s.VendorID,
		customerID:  s.CustomerID,
		serviceType: s.ServiceType,
		dateRange:   s.DateRange,
		items:       items,
		guests:      s.Guests,
		pricing:     s.Pricing,
		couponID:    s.CouponID,
		couponCode:  s.CouponCode,
		status:      s.Status,
		note:        s.Note,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
}

func (b *Booking) Transition(next Status, now time.Time) error {
	if b.status == next && next == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if !b.status.CanTransitionTo(next) {
		return errs.Wrapf(ErrInvalidStatusTransition, "%s to %s", b.status, next)
	}
	b.status = next
	b.updatedAt = now
	return nil
}

func (b *Booking) Cancel(now time.Time) error {
	return b.Transition(StatusCancelled, now)
}

func (b *Booking) IsCancelled() bool {
	return b.status == StatusCancelled
}

func (b *Booking) Units() []UnitRef {
	refs := make([]UnitRef, len(b.items))
	for i, item := range b.items {
		refs[i] = item.Unit
	}
	return refs
}

func (b *Booking) ID() uuid.UUID                    { return b.id }
func (b *Booking) ListingID() uuid.UUID             { return b.listingID }
func (b *Booking) VendorID() uuid.UUID              { return b.vendorID }
func (b *Booking) CustomerID() uuid.UUID            { return b.customerID }
func (b *Booking) ServiceType() listing.ServiceType { return b.serviceType }
func (b *Booking) DateRange() DateRange             { return b.dateRange }
func (b *Booking) Guests() *int                     { return b.guests }
func (b *Booking) Pricing() Pricing                 { return b.pricing }
func (b *Booking) CouponID() *uuid.UUID             { return b.couponID }
func (b *Booking) CouponCode() *string              { return b.couponCode }
func (b *Booking) Status() Status                   { return b.status }
func (b *Booking) Note() Note                       { return b.note }
func (b *Booking) CreatedAt() time.Time             { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time             { return b.updatedAt }

func (b *Booking) Items() []LineItem {
	out := make([]LineItem, len(b.items))
	copy(out, b.items)
	return out
}
