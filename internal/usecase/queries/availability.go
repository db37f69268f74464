package queries

import (
	"context"
	"time"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/infra"

	"github.com/google/uuid"
)

type ListingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ListingView, error)
	FindOccupiedUnits(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]booking.UnitRef, error)
}

type AvailabilityQueries interface {
	Check(ctx context.Context, listingID uuid.UUID, start, end time.Time) (*AvailabilityView, error)
}

type availabilityQueriesImpl struct {
	repo ListingReadStore
}

func NewAvailabilityQueries(repo ListingReadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{repo: repo}
}

// Check is advisory; the booking transaction re-checks under the listing lock.
func (q *availabilityQueriesImpl) Check(ctx context.Context, listingID uuid.UUID, start, end time.Time) (*AvailabilityView, error) {
	dr, err := booking.NewDateRange(start, end)
	if err != nil {
		return nil, ErrInvalidDateRange
	}

	lv, err := q.repo.FindByID(ctx, listingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !lv.Active {
		return nil, ErrListingNotFound
	}

	occupied, err := q.repo.FindOccupiedUnits(ctx, listingID, dr.Start(), dr.End())
	if err != nil {
		return nil, err
	}

	view := &AvailabilityView{
		ListingID:     lv.ID,
		ServiceType:   lv.ServiceType,
		StartDate:     dr.Start(),
		EndDate:       dr.End(),
		Duration:      dr.Units(),
		DurationLabel: listing.ServiceType(lv.ServiceType).DurationLabel(),
		Units:         make([]UnitAvailability, 0, len(lv.Units)),
	}
	for _, u := range lv.Units {
		id := u.ID
		ref := booking.UnitRef{ID: &id, Name: u.Name}
		conflicts := booking.CheckAvailability([]booking.UnitRef{ref}, occupied)
		view.Units = append(view.Units, UnitAvailability{
			UnitView:  u,
			Available: len(conflicts) == 0,
		})
	}
	return view, nil
}
