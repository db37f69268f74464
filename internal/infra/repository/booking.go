package repository

import (
	"context"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/infra/repository/converter"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query, args, err := db.Builder.
		Insert("bookings").
		Columns(converter.BookingColumns...).
		Values(converter.BookingToValues(b)...).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build booking insert", err, infra.KindDBFailure)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}

	items := db.Builder.
		Insert("booking_items").
		Columns("booking_id", "position", "unit_id", "unit_name", "quantity", "unit_price_cents", "unit_tax_cents")
	for i, item := range b.Items() {
		items = items.Values(converter.ItemValues(b.ID(), i, item)...)
	}
	query, args, err = items.ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build booking items insert", err, infra.KindDBFailure)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create booking items", err)
	}
	return nil
}

// FindOccupiedUnits returns the units held by non-cancelled bookings whose
// range intersects rng, using the half-open overlap rule.
func (r *BookingRepository) FindOccupiedUnits(ctx context.Context, listingID uuid.UUID, rng booking.DateRange) ([]booking.UnitRef, error) {
	return OccupiedUnits(ctx, r.db, listingID, rng)
}

// OccupiedUnits is shared with the availability read store.
func OccupiedUnits(ctx context.Context, dbtx db.DBTX, listingID uuid.UUID, rng booking.DateRange) ([]booking.UnitRef, error) {
	query, args, err := db.Builder.
		Select("DISTINCT bi.unit_id", "bi.unit_name").
		From("booking_items bi").
		Join("bookings b ON b.id = bi.booking_id").
		Where(squirrel.Eq{"b.listing_id": listingID}).
		Where(squirrel.NotEq{"b.status": booking.StatusCancelled.String()}).
		Where(squirrel.Lt{"b.start_date": rng.End()}).
		Where(squirrel.Gt{"b.end_date": rng.Start()}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build occupied units query", err, infra.KindDBFailure)
	}

	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query occupied units", err)
	}
	defer rows.Close()

	var refs []booking.UnitRef
	for rows.Next() {
		var row converter.ItemRow
		if err := rows.Scan(&row.UnitID, &row.UnitName); err != nil {
			return nil, infra.WrapRepoErr("failed to scan occupied unit", err)
		}
		refs = append(refs, converter.UnitRefFromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate occupied units", err)
	}
	return refs, nil
}

func (r *BookingRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	query, args, err := db.Builder.
		Select(converter.BookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking lock query", err, infra.KindDBFailure)
	}

	var row converter.BookingRow
	if err := r.db.QueryRow(ctx, query, args...).Scan(row.ScanTargets()...); err != nil {
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}

	b, err := converter.BookingToDomain(row, items)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to rebuild booking", err, infra.KindDBFailure)
	}
	return b, nil
}

func (r *BookingRepository) items(ctx context.Context, bookingID uuid.UUID) ([]converter.ItemRow, error) {
	query, args, err := db.Builder.
		Select("unit_id", "unit_name", "quantity", "unit_price_cents", "unit_tax_cents").
		From("booking_items").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking items query", err, infra.KindDBFailure)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query booking items", err)
	}
	defer rows.Close()

	var items []converter.ItemRow
	for rows.Next() {
		var it converter.ItemRow
		if err := rows.Scan(&it.UnitID, &it.UnitName, &it.Quantity, &it.UnitPriceCents, &it.UnitTaxCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking items", err)
	}
	return items, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	query, args, err := db.Builder.
		Update("bookings").
		Set("status", b.Status().String()).
		Set("updated_at", b.UpdatedAt()).
		Where(squirrel.Eq{"id": b.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build booking status update", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("booking not found")
	}
	return nil
}
