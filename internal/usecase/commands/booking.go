package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/coupon"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/infra"
	"travel-booking/internal/pkg/clock"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/notify"
	"travel-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const createBookingEndpoint = "POST /api/bookings"

var (
	ErrValidation            = errs.New("validation failed")
	ErrListingNotFound       = errs.New("listing not found")
	ErrBookingNotFound       = errs.New("booking not found")
	ErrBookingForbidden      = errs.New("not allowed to modify this booking")
	ErrIdempotencyInProgress = errs.New("a request with this idempotency key is still in progress")
	ErrIdempotencyKeyReused  = errs.New("idempotency key was already used with a different request")
)

type UnitSelection struct {
	UnitID     *uuid.UUID `json:"unit_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Quantity   int        `json:"quantity"`
	PriceCents *int64     `json:"price_cents,omitempty"`
	TaxCents   *int64     `json:"tax_cents,omitempty"`
}

type CreateBookingInput struct {
	ServiceType listing.ServiceType `json:"service_type"`
	ListingID   uuid.UUID           `json:"listing_id"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Items       []UnitSelection     `json:"items"`
	Guests      *int                `json:"guests,omitempty"`
	CouponCode  *string             `json:"coupon_code,omitempty"`
	Note        string              `json:"note,omitempty"`
}

type CreateBookingResult struct {
	BookingID  uuid.UUID
	IsReplayed bool
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, input CreateBookingInput, customerID uuid.UUID, idempotencyKey *uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, caller actor.Actor) error
	UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status booking.Status, caller actor.Actor) error
}

type bookingUseCaseImpl struct {
	uow            shared.UnitOfWork
	factory        *booking.Factory
	dispatcher     notify.Dispatcher
	clock          clock.Clock
	idempotencyTTL time.Duration
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	factory *booking.Factory,
	dispatcher notify.Dispatcher,
	clk clock.Clock,
	idempotencyTTL time.Duration,
) BookingCommands {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &bookingUseCaseImpl{
		uow:            uow,
		factory:        factory,
		dispatcher:     dispatcher,
		clock:          clk,
		idempotencyTTL: idempotencyTTL,
	}
}

func (uc *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	input CreateBookingInput,
	customerID uuid.UUID,
	idempotencyKey *uuid.UUID,
) (*CreateBookingResult, error) {
	draft, err := uc.buildDraft(input, customerID)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		hash, err := requestHash(input)
		if err != nil {
			return nil, err
		}
		replayed, err := uc.claimIdempotencyKey(ctx, *idempotencyKey, customerID, hash)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return &CreateBookingResult{BookingID: *replayed, IsReplayed: true}, nil
		}
	}

	var notice notify.BookingNotice
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var derr error
		notice, derr = uc.createInTx(ctx, tx, input, draft, idempotencyKey)
		return derr
	})
	if err != nil {
		if idempotencyKey != nil {
			uc.releaseIdempotencyKey(ctx, *idempotencyKey, customerID)
		}
		return nil, err
	}

	uc.dispatcher.DispatchAsync(ctx, notice)

	return &CreateBookingResult{BookingID: notice.BookingID}, nil
}

func (uc *bookingUseCaseImpl) buildDraft(input CreateBookingInput, customerID uuid.UUID) (booking.Draft, error) {
	if !input.ServiceType.IsValid() {
		return booking.Draft{}, errs.Mark(listing.ErrInvalidServiceType, ErrValidation)
	}

	dateRange, err := booking.NewDateRange(input.Start, input.End)
	if err != nil {
		return booking.Draft{}, errs.Mark(err, ErrValidation)
	}

	if len(input.Items) == 0 {
		return booking.Draft{}, errs.Mark(booking.ErrNoItems, ErrValidation)
	}
	items := make([]booking.DraftItem, 0, len(input.Items))
	for _, sel := range input.Items {
		if sel.Quantity <= 0 {
			return booking.Draft{}, errs.Mark(booking.ErrInvalidQuantity, ErrValidation)
		}
		ref, err := booking.NewUnitRef(sel.UnitID, sel.Name)
		if err != nil {
			return booking.Draft{}, errs.Mark(err, ErrValidation)
		}
		items = append(items, booking.DraftItem{
			Unit:       ref,
			Quantity:   sel.Quantity,
			PriceCents: sel.PriceCents,
			TaxCents:   sel.TaxCents,
		})
	}

	note, err := booking.NewNote(input.Note)
	if err != nil {
		return booking.Draft{}, errs.Mark(err, ErrValidation)
	}

	return booking.Draft{
		CustomerID:  customerID,
		ServiceType: input.ServiceType,
		DateRange:   dateRange,
		Items:       items,
		Guests:      input.Guests,
		Note:        note,
	}, nil
}

func (uc *bookingUseCaseImpl) createInTx(
	ctx context.Context,
	tx shared.Tx,
	input CreateBookingInput,
	draft booking.Draft,
	idempotencyKey *uuid.UUID,
) (notify.BookingNotice, error) {
	snap, err := tx.Listings().LockForBooking(ctx, input.ListingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return notify.BookingNotice{}, ErrListingNotFound
		}
		return notify.BookingNotice{}, err
	}
	lst, err := listingFromSnapshot(snap)
	if err != nil {
		return notify.BookingNotice{}, err
	}

	occupied, err := tx.Bookings().FindOccupiedUnits(ctx, lst.ID(), draft.DateRange)
	if err != nil {
		return notify.BookingNotice{}, err
	}

	var couponEntity *coupon.Coupon
	if input.CouponCode != nil {
		couponEntity, err = uc.loadCoupon(ctx, tx, *input.CouponCode)
		if err != nil {
			return notify.BookingNotice{}, err
		}
	}

	b, err := uc.factory.CreateBooking(lst, draft, occupied, couponEntity)
	if err != nil {
		return notify.BookingNotice{}, classifyFactoryError(err)
	}

	if couponEntity != nil {
		consumed, err := tx.Coupons().ConsumeUse(ctx, couponEntity.ID())
		if err != nil {
			return notify.BookingNotice{}, err
		}
		if !consumed {
			return notify.BookingNotice{}, errs.Mark(coupon.ErrUsageLimitReached, ErrValidation)
		}
	}

	if err := tx.Bookings().Create(ctx, b); err != nil {
		return notify.BookingNotice{}, err
	}

	customer, err := tx.Reads().UserContact(ctx, draft.CustomerID)
	if err != nil {
		return notify.BookingNotice{}, err
	}

	notice := notify.BookingNotice{
		BookingID:     b.ID(),
		ListingTitle:  lst.Title(),
		ServiceType:   lst.ServiceType().String(),
		DurationLabel: lst.ServiceType().DurationLabel(),
		Units:         b.DateRange().Units(),
		Start:         b.DateRange().Start(),
		End:           b.DateRange().End(),
		TotalCents:    b.Pricing().TotalCents,
		CouponCode:    b.CouponCode(),
		Customer:      notify.Recipient{Name: customer.Name, Email: customer.Email},
		Vendor:        notify.Recipient{Name: snap.VendorName, Email: snap.VendorEmail},
		Jobs:          make(map[notify.Kind]uuid.UUID, len(notify.Kinds)),
	}
	if err := uc.enqueueNotifications(ctx, tx, &notice); err != nil {
		return notify.BookingNotice{}, err
	}

	if idempotencyKey != nil {
		if err := tx.Idempotency().Complete(ctx, *idempotencyKey, draft.CustomerID, b.ID()); err != nil {
			return notify.BookingNotice{}, err
		}
	}

	return notice, nil
}

func (uc *bookingUseCaseImpl) loadCoupon(ctx context.Context, tx shared.Tx, rawCode string) (*coupon.Coupon, error) {
	code, err := coupon.NewCouponCode(rawCode)
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}
	snap, err := tx.Coupons().FindByCode(ctx, code.String())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(coupon.ErrCouponNotFound, ErrValidation)
		}
		return nil, err
	}
	c, err := coupon.NewCoupon(coupon.Attributes{
		ID:               snap.ID,
		Code:             snap.Code,
		Type:             coupon.DiscountType(snap.Type),
		Value:            snap.Value,
		MinPurchaseCents: snap.MinPurchaseCents,
		MaxDiscountCents: snap.MaxDiscountCents,
		StartDate:        snap.StartDate,
		ExpiryDate:       snap.ExpiryDate,
		Active:           snap.Active,
		UsageLimit:       snap.UsageLimit,
		UsedCount:        snap.UsedCount,
	})
	if err != nil {
		return nil, errs.Wrap(err, "stored coupon is malformed")
	}
	return c, nil
}

func (uc *bookingUseCaseImpl) enqueueNotifications(ctx context.Context, tx shared.Tx, notice *notify.BookingNotice) error {
	recipients := map[notify.Kind]string{
		notify.KindCustomerConfirmation: notice.Customer.Email,
		notify.KindVendorNotification:   notice.Vendor.Email,
	}
	for _, kind := range notify.Kinds {
		payload, err := json.Marshal(map[string]any{
			"booking_id": notice.BookingID,
			"kind":       string(kind),
			"recipient":  recipients[kind],
		})
		if err != nil {
			return err
		}
		jobID, err := tx.Notifications().CreateJob(ctx, notify.JobKindEmail, string(kind), payload, uc.clock.Now())
		if err != nil {
			return err
		}
		notice.Jobs[kind] = jobID
	}
	return nil
}

// claimIdempotencyKey returns the stored booking id when the request is a replay.
func (uc *bookingUseCaseImpl) claimIdempotencyKey(ctx context.Context, key, userID uuid.UUID, hash string) (*uuid.UUID, error) {
	now := uc.clock.Now()
	expiresAt := now.Add(uc.idempotencyTTL)
	repo := uc.uow.Idempotency()

	inserted, err := repo.TryInsert(ctx, key, userID, createBookingEndpoint, hash, expiresAt)
	if err != nil {
		return nil, err
	}
	if inserted {
		return nil, nil
	}

	existing, err := repo.Get(ctx, key, userID)
	if err != nil {
		return nil, err
	}

	if now.After(existing.ExpiresAt) {
		claimed, err := repo.ClaimExpired(ctx, key, userID, hash, now, expiresAt)
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, nil
		}
		return nil, ErrIdempotencyInProgress
	}

	if existing.RequestHash != hash {
		return nil, ErrIdempotencyKeyReused
	}

	switch existing.Status {
	case shared.IdempotencyStatusCompleted:
		if existing.ResultBookingID == nil {
			return nil, errs.New("completed idempotency key has no result booking")
		}
		return existing.ResultBookingID, nil
	case shared.IdempotencyStatusProcessing:
		return nil, ErrIdempotencyInProgress
	default:
		return nil, errs.Newf("invalid idempotency key status %q", existing.Status)
	}
}

func (uc *bookingUseCaseImpl) releaseIdempotencyKey(ctx context.Context, key, userID uuid.UUID) {
	if err := uc.uow.Idempotency().Release(context.WithoutCancel(ctx), key, userID); err != nil {
		slog.Warn("failed to release idempotency key",
			"key", key.String(),
			"error", err.Error())
	}
}

func (uc *bookingUseCaseImpl) CancelBooking(ctx context.Context, bookingID uuid.UUID, caller actor.Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := uc.findForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		switch {
		case caller.IsAdmin(), b.CustomerID() == caller.ID:
		case b.VendorID() == caller.ID:
			return ErrBookingForbidden
		default:
			return ErrBookingNotFound
		}

		if err := b.Cancel(uc.clock.Now()); err != nil {
			return err
		}
		return tx.Bookings().UpdateStatus(ctx, b)
	})
}

func (uc *bookingUseCaseImpl) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status booking.Status, caller actor.Actor) error {
	if !status.IsValid() {
		return errs.Mark(booking.ErrInvalidStatus, ErrValidation)
	}

	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := uc.findForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		switch {
		case caller.IsAdmin(), caller.IsVendor() && b.VendorID() == caller.ID:
		case b.CustomerID() == caller.ID:
			return ErrBookingForbidden
		default:
			return ErrBookingNotFound
		}

		if err := b.Transition(status, uc.clock.Now()); err != nil {
			return err
		}
		return tx.Bookings().UpdateStatus(ctx, b)
	})
}

func (uc *bookingUseCaseImpl) findForUpdate(ctx context.Context, tx shared.Tx, id uuid.UUID) (*booking.Booking, error) {
	b, err := tx.Bookings().FindForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func listingFromSnapshot(snap *shared.ListingSnapshot) (*listing.Listing, error) {
	units := make([]listing.Unit, 0, len(snap.Units))
	for _, us := range snap.Units {
		u, err := listing.NewUnit(us.ID, snap.ID, us.Name, us.PriceCents, us.TaxCents, us.Capacity)
		if err != nil {
			return nil, errs.Wrapf(err, "stored unit %s is malformed", us.ID)
		}
		units = append(units, u)
	}
	st, err := listing.ParseServiceType(snap.ServiceType)
	if err != nil {
		return nil, errs.Wrap(err, "stored listing has an unknown service type")
	}
	return listing.NewListing(listing.Attributes{
		ID:              snap.ID,
		VendorID:        snap.VendorID,
		ServiceType:     st,
		Title:           snap.Title,
		Active:          snap.Active,
		ServiceFeeCents: snap.ServiceFeeCents,
		Units:           units,
	})
}

// classifyFactoryError keeps conflicts and unknown units as they are and marks
// everything else the caller can fix as a validation error.
func classifyFactoryError(err error) error {
	switch {
	case errs.Is(err, listing.ErrListingUnavailable):
		return errs.Mark(err, ErrListingNotFound)
	case errs.Is(err, booking.ErrDateConflict), errs.Is(err, listing.ErrUnitNotFound):
		return err
	default:
		return errs.Mark(err, ErrValidation)
	}
}

func requestHash(input CreateBookingInput) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", errs.Wrap(err, "failed to hash booking request")
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
