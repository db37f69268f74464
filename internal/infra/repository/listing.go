package repository

import (
	"context"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type ListingRepository struct {
	db db.DBTX
}

func NewListingRepository(dbtx db.DBTX) *ListingRepository {
	return &ListingRepository{db: dbtx}
}

// LockForBooking must run inside a transaction; concurrent bookings of the
// same listing queue on the row lock until the holder commits.
func (r *ListingRepository) LockForBooking(ctx context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	query, args, err := db.Builder.
		Select("l.id", "l.vendor_id", "u.name", "u.email", "l.service_type", "l.title", "l.active", "l.service_fee_cents").
		From("listings l").
		Join("users u ON u.id = l.vendor_id").
		Where(squirrel.Eq{"l.id": id}).
		Suffix("FOR UPDATE OF l").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build listing lock query", err, infra.KindDBFailure)
	}

	var snap shared.ListingSnapshot
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.VendorID, &snap.VendorName, &snap.VendorEmail,
		&snap.ServiceType, &snap.Title, &snap.Active, &snap.ServiceFeeCents,
	); err != nil {
		return nil, infra.WrapRepoErr("failed to lock listing", err)
	}

	units, err := r.units(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.Units = units
	return &snap, nil
}

func (r *ListingRepository) units(ctx context.Context, listingID uuid.UUID) ([]shared.UnitSnapshot, error) {
	query, args, err := db.Builder.
		Select("id", "name", "price_cents", "tax_cents", "capacity").
		From("bookable_units").
		Where(squirrel.Eq{"listing_id": listingID}).
		OrderBy("position", "name").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build unit query", err, infra.KindDBFailure)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query units", err)
	}
	defer rows.Close()

	var units []shared.UnitSnapshot
	for rows.Next() {
		var u shared.UnitSnapshot
		if err := rows.Scan(&u.ID, &u.Name, &u.PriceCents, &u.TaxCents, &u.Capacity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan unit", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate units", err)
	}
	return units, nil
}
