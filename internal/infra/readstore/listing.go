package readstore

import (
	"context"
	"time"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/infra/repository"
	"travel-booking/internal/pkg/pgconv"
	"travel-booking/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ListingReadStore struct {
	db db.DBTX
}

func NewListingReadStore(dbtx db.DBTX) *ListingReadStore {
	return &ListingReadStore{db: dbtx}
}

func (r *ListingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ListingView, error) {
	query, args, err := db.Builder.
		Select("id", "vendor_id", "service_type", "title", "active", "service_fee_cents").
		From("listings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build listing view query", err, infra.KindDBFailure)
	}

	var v queries.ListingView
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.VendorID, &v.ServiceType, &v.Title, &v.Active, &v.ServiceFeeCents,
	); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("listing not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find listing by ID", err)
	}

	query, args, err = db.Builder.
		Select("id", "name", "price_cents", "tax_cents", "capacity").
		From("bookable_units").
		Where(squirrel.Eq{"listing_id": id}).
		OrderBy("position", "name").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build unit view query", err, infra.KindDBFailure)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query listing units", err)
	}
	v.Units, err = pgx.CollectRows(rows, pgx.RowToStructByPos[queries.UnitView])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan listing units", err)
	}
	return &v, nil
}

func (r *ListingReadStore) FindOccupiedUnits(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]booking.UnitRef, error) {
	rng, err := booking.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return repository.OccupiedUnits(ctx, r.db, listingID, rng)
}
