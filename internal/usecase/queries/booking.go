package queries

import (
	"context"
	"time"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/domain/booking"
	"travel-booking/internal/infra"

	"github.com/google/uuid"
)

type BookingFilters struct {
	Status *booking.Status
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByCustomerFirstPage(ctx context.Context, customerID uuid.UUID, status *string, limit int32) ([]*BookingListItem, error)
	FindByCustomerKeyset(ctx context.Context, customerID uuid.UUID, status *string, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, caller actor.Actor, id uuid.UUID) (*BookingView, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filters BookingFilters, cursor *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
}

type bookingQueriesImpl struct {
	repo BookingReadStore
}

func NewBookingQueries(repo BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

// GetByID hides bookings the caller may not see behind ErrBookingNotFound.
func (q *bookingQueriesImpl) GetByID(ctx context.Context, caller actor.Actor, id uuid.UUID) (*BookingView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !canView(caller, view) {
		return nil, ErrBookingNotFound
	}
	return view, nil
}

func canView(caller actor.Actor, view *BookingView) bool {
	switch {
	case caller.IsAdmin():
		return true
	case view.CustomerID == caller.ID:
		return true
	case caller.IsVendor() && view.VendorID == caller.ID:
		return true
	default:
		return false
	}
}

func (q *bookingQueriesImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, filters BookingFilters, cursor *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	var status *string
	if filters.Status != nil {
		if !filters.Status.IsValid() {
			return nil, nil, ErrInvalidStatus
		}
		s := filters.Status.String()
		status = &s
	}

	limit = ValidateLimit(limit)
	var rows []*BookingListItem
	var err error
	if cursor == nil || cursor.After == "" {
		rows, err = q.repo.FindByCustomerFirstPage(ctx, customerID, status, int32(limit+1))
	} else {
		lastCreatedAt, lastID, derr := DecodeAfterCursor(cursor.After)
		if derr != nil {
			return nil, nil, ErrInvalidCursor
		}
		rows, err = q.repo.FindByCustomerKeyset(ctx, customerID, status, lastCreatedAt, lastID, int32(limit+1))
	}
	if err != nil {
		return nil, nil, err
	}
	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
		rows = rows[:limit]
	}
	return rows, next, nil
}
