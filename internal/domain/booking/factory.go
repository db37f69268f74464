package booking

import (
	"travel-booking/internal/domain/coupon"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/pkg/clock"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/pkg/patch"

	"github.com/google/uuid"
)

var (
	ErrNoItems          = errs.New("at least one unit must be selected")
	ErrDuplicateUnit    = errs.New("the same unit was selected more than once")
	ErrInvalidGuests    = errs.New("guests must be greater than zero")
	ErrCapacityExceeded = errs.New("guests exceed the capacity of the selected units")
)

type DraftItem struct {
	Unit       UnitRef
	Quantity   int
	PriceCents *int64
	TaxCents   *int64
}

// Draft is a validated booking request not yet checked against the listing.
type Draft struct {
	CustomerID  uuid.UUID
	ServiceType listing.ServiceType
	DateRange   DateRange
	Items       []DraftItem
	Guests      *int
	Note        Note
}

type Factory struct {
	Clock             clock.Clock
	PriceCalculator   PriceCalculator
	TrustClientPrices bool
}

func NewFactory(clock clock.Clock, priceCalculator PriceCalculator, trustClientPrices bool) *Factory {
	return &Factory{
		Clock:             clock,
		PriceCalculator:   priceCalculator,
		TrustClientPrices: trustClientPrices,
	}
}

// CreateBooking checks the draft against the locked listing and the units already
// occupied in the requested range, prices it and applies the coupon if present.
func (f *Factory) CreateBooking(
	lst *listing.Listing,
	draft Draft,
	occupied []UnitRef,
	couponEntity *coupon.Coupon,
) (*Booking, error) {
	if err := lst.EnsureBookable(draft.ServiceType); err != nil {
		return nil, err
	}
	if len(draft.Items) == 0 {
		return nil, ErrNoItems
	}

	items := make([]LineItem, 0, len(draft.Items))
	seen := make(map[uuid.UUID]struct{}, len(draft.Items))
	capacity := 0
	for _, di := range draft.Items {
		unit, err := lst.ResolveUnit(di.Unit.ID, di.Unit.Name)
		if err != nil {
			return nil, errs.Wrapf(err, "unit %q", di.Unit.Label())
		}
		if _, dup := seen[unit.ID()]; dup {
			return nil, ErrDuplicateUnit
		}
		seen[unit.ID()] = struct{}{}

		unitID := unit.ID()
		price := patch.CoalesceIf(f.TrustClientPrices, di.PriceCents, unit.PriceCents())
		tax := patch.CoalesceIf(f.TrustClientPrices, di.TaxCents, unit.TaxCents())
		item, err := NewLineItem(UnitRef{ID: &unitID, Name: unit.Name()}, di.Quantity, price, tax)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		capacity += unit.Capacity() * di.Quantity
	}

	if draft.Guests != nil {
		if *draft.Guests <= 0 {
			return nil, ErrInvalidGuests
		}
		if *draft.Guests > capacity {
			return nil, ErrCapacityExceeded
		}
	}

	requested := make([]UnitRef, len(items))
	for i, item := range items {
		requested[i] = item.Unit
	}
	if err := EnsureAvailable(requested, occupied); err != nil {
		return nil, err
	}

	pricing := f.PriceCalculator.Calculate(items, draft.DateRange.Units(), lst.ServiceFeeCents())

	now := f.Clock.Now()
	var couponID *uuid.UUID
	var couponCode *string
	if couponEntity != nil {
		if err := couponEntity.Validate(now, pricing.Gross()); err != nil {
			return nil, err
		}
		pricing = pricing.WithDiscount(couponEntity.DiscountFor(pricing.Gross()))
		id := couponEntity.ID()
		code := couponEntity.Code().String()
		couponID = &id
		couponCode = &code
	}

	return &Booking{
		id:          uuid.New(),
		listingID:   lst.ID(),
		vendorID:    lst.VendorID(),
		customerID:  draft.CustomerID,
		serviceType: draft.ServiceType,
		dateRange:   draft.DateRange,
		items:       items,
		guests:      draft.Guests,
		pricing:     pricing,
		couponID:    couponID,
		couponCode:  couponCode,
		status:      StatusPending,
		note:        draft.Note,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}
