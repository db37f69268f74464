package converter

import (
	"time"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingRow mirrors the bookings table column order used by the repositories.
type BookingRow struct {
	ID            uuid.UUID
	ListingID     uuid.UUID
	VendorID      uuid.UUID
	CustomerID    uuid.UUID
	ServiceType   string
	StartDate     time.Time
	EndDate       time.Time
	Guests        pgtype.Int4
	SubtotalCents int64
	TaxCents      int64
	FeeCents      int64
	DiscountCents int64
	TotalCents    int64
	CouponID      pgtype.UUID
	CouponCode    pgtype.Text
	Status        string
	Note          pgtype.Text
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var BookingColumns = []string{
	"id", "listing_id", "vendor_id", "customer_id", "service_type",
	"start_date", "end_date", "guests",
	"subtotal_cents", "tax_cents", "fee_cents", "discount_cents", "total_cents",
	"coupon_id", "coupon_code", "status", "note", "created_at", "updated_at",
}

func (r *BookingRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.ListingID, &r.VendorID, &r.CustomerID, &r.ServiceType,
		&r.StartDate, &r.EndDate, &r.Guests,
		&r.SubtotalCents, &r.TaxCents, &r.FeeCents, &r.DiscountCents, &r.TotalCents,
		&r.CouponID, &r.CouponCode, &r.Status, &r.Note, &r.CreatedAt, &r.UpdatedAt,
	}
}

type ItemRow struct {
	UnitID         pgtype.UUID
	UnitName       string
	Quantity       int
	UnitPriceCents int64
	UnitTaxCents   int64
}

func BookingToValues(b *booking.Booking) []any {
	r := b.DateRange()
	p := b.Pricing()
	var guests *int32
	if g := b.Guests(); g != nil {
		v := int32(*g) // #nosec G115 -- guests is bounded by unit capacity
		guests = &v
	}
	return []any{
		b.ID(), b.ListingID(), b.VendorID(), b.CustomerID(), b.ServiceType().String(),
		r.Start(), r.End(), guests,
		p.SubtotalCents, p.TaxCents, p.FeeCents, p.DiscountCents, p.TotalCents,
		pgconv.UUIDParam(b.CouponID()), b.CouponCode(), b.Status().String(),
		pgconv.TextFromString(b.Note().String()), b.CreatedAt(), b.UpdatedAt(),
	}
}

func ItemValues(bookingID uuid.UUID, position int, item booking.LineItem) []any {
	return []any{
		bookingID, position, pgconv.UUIDParam(item.Unit.ID), item.Unit.Name,
		item.Quantity, item.UnitPriceCents, item.UnitTaxCents,
	}
}

func BookingToDomain(row BookingRow, items []ItemRow) (*booking.Booking, error) {
	dr, err := booking.NewDateRange(row.StartDate, row.EndDate)
	if err != nil {
		return nil, errs.Wrapf(err, "stored booking %s has an invalid range", row.ID)
	}
	note, err := booking.NewNote(row.Note.String)
	if err != nil {
		return nil, errs.Wrapf(err, "stored booking %s has an invalid note", row.ID)
	}

	lines := make([]booking.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, booking.LineItem{
			Unit:           UnitRefFromRow(it),
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			UnitTaxCents:   it.UnitTaxCents,
		})
	}

	return booking.Reconstruct(booking.Snapshot{
		ID:          row.ID,
		ListingID:   row.ListingID,
		VendorID:    row.VendorID,
		CustomerID:  row.CustomerID,
		ServiceType: listing.ServiceType(row.ServiceType),
		DateRange:   dr,
		Items:       lines,
		Guests:      pgconv.IntPtr(row.Guests),
		Pricing: booking.Pricing{
			SubtotalCents: row.SubtotalCents,
			TaxCents:      row.TaxCents,
			FeeCents:      row.FeeCents,
			DiscountCents: row.DiscountCents,
			TotalCents:    row.TotalCents,
		},
		CouponID:   pgconv.UUIDPtr(row.CouponID),
		CouponCode: pgconv.StringPtr(row.CouponCode),
		Status:     booking.Status(row.Status),
		Note:       note,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}), nil
}

func UnitRefFromRow(row ItemRow) booking.UnitRef {
	return booking.UnitRef{ID: pgconv.UUIDPtr(row.UnitID), Name: row.UnitName}
}
