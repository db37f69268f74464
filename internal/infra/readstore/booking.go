package readstore

import (
	"context"
	"time"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/pkg/pgconv"
	"travel-booking/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	query, args, err := db.Builder.
		Select(
			"b.id", "b.listing_id", "l.title", "b.vendor_id", "b.customer_id", "u.email",
			"b.service_type", "b.start_date", "b.end_date", "b.guests",
			"b.subtotal_cents", "b.tax_cents", "b.fee_cents", "b.discount_cents", "b.total_cents",
			"b.coupon_id", "b.coupon_code", "b.status", "b.note", "b.created_at", "b.updated_at",
		).
		From("bookings b").
		Join("listings l ON l.id = b.listing_id").
		Join("users u ON u.id = b.customer_id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking view query", err, infra.KindDBFailure)
	}

	var (
		v          queries.BookingView
		guests     pgtype.Int4
		couponID   pgtype.UUID
		couponCode pgtype.Text
		note       pgtype.Text
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.ListingID, &v.ListingTitle, &v.VendorID, &v.CustomerID, &v.CustomerEmail,
		&v.ServiceType, &v.StartDate, &v.EndDate, &guests,
		&v.SubtotalCents, &v.TaxCents, &v.FeeCents, &v.DiscountCents, &v.TotalCents,
		&couponID, &couponCode, &v.Status, &note, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	v.Guests = pgconv.IntPtr(guests)
	v.CouponID = pgconv.UUIDPtr(couponID)
	v.CouponCode = pgconv.StringPtr(couponCode)
	v.Note = pgconv.StringPtr(note)

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Items = items
	return &v, nil
}

func (r *BookingReadStore) items(ctx context.Context, bookingID uuid.UUID) ([]queries.BookingItemView, error) {
	query, args, err := db.Builder.
		Select("unit_id", "unit_name", "quantity", "unit_price_cents", "unit_tax_cents").
		From("booking_items").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking items view query", err, infra.KindDBFailure)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query booking items", err)
	}
	defer rows.Close()

	items := make([]queries.BookingItemView, 0)
	for rows.Next() {
		var (
			it     queries.BookingItemView
			unitID pgtype.UUID
		)
		if err := rows.Scan(&unitID, &it.UnitName, &it.Quantity, &it.UnitPriceCents, &it.UnitTaxCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking item", err)
		}
		it.UnitID = pgconv.UUIDPtr(unitID)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking items", err)
	}
	return items, nil
}

func (r *BookingReadStore) FindByCustomerFirstPage(ctx context.Context, customerID uuid.UUID, status *string, limit int32) ([]*queries.BookingListItem, error) {
	return r.listByCustomer(ctx, r.customerPage(customerID, status, limit))
}

// FindByCustomerKeyset continues after (lastCreatedAt, lastID) in created_at DESC, id DESC order.
func (r *BookingReadStore) FindByCustomerKeyset(ctx context.Context, customerID uuid.UUID, status *string, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	q := r.customerPage(customerID, status, limit).
		Where(squirrel.Expr("(b.created_at, b.id) < (?, ?)", lastCreatedAt, lastID))
	return r.listByCustomer(ctx, q)
}

func (r *BookingReadStore) customerPage(customerID uuid.UUID, status *string, limit int32) squirrel.SelectBuilder {
	q := db.Builder.
		Select("b.id", "b.listing_id", "l.title", "b.service_type", "b.start_date", "b.end_date",
			"b.status", "b.total_cents", "b.created_at").
		From("bookings b").
		Join("listings l ON l.id = b.listing_id").
		Where(squirrel.Eq{"b.customer_id": customerID}).
		OrderBy("b.created_at DESC", "b.id DESC").
		Limit(uint64(max(limit, 0))) // #nosec G115 -- clamped to non-negative
	if status != nil {
		q = q.Where(squirrel.Eq{"b.status": *status})
	}
	return q
}

func (r *BookingReadStore) listByCustomer(ctx context.Context, q squirrel.SelectBuilder) ([]*queries.BookingListItem, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking list query", err, infra.KindDBFailure)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list customer bookings", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.BookingListItem, error) {
		var it queries.BookingListItem
		err := row.Scan(&it.ID, &it.ListingID, &it.ListingTitle, &it.ServiceType, &it.StartDate, &it.EndDate,
			&it.Status, &it.TotalCents, &it.CreatedAt)
		return &it, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan customer bookings", err)
	}
	return items, nil
}
