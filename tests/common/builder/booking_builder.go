//go:build unit || e2e

package builder

import (
	"time"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

const requestDateLayout = "2006-01-02"

type BookingUnit struct {
	ID         *uuid.UUID
	Name       string
	Quantity   int
	PriceCents int64
	TaxCents   int64
}

type BookingBuilder struct {
	ServiceType  listing.ServiceType
	ListingID    uuid.UUID
	ListingTitle string
	VendorID     uuid.UUID
	CustomerID   uuid.UUID
	Email        string
	Start        time.Time
	End          time.Time
	Units        []BookingUnit
	Guests       *int
	CouponCode   *string
	Note         string
	Status       booking.Status
	FeeCents     int64
	CreatedAt    time.Time
}

func NewBookingBuilder() *BookingBuilder {
	start := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		ServiceType:  listing.ServiceStay,
		ListingID:    uuid.New(),
		ListingTitle: "Seaside Guesthouse",
		VendorID:     uuid.New(),
		CustomerID:   uuid.New(),
		Email:        "guest@example.com",
		Start:        start,
		End:          start.AddDate(0, 0, 2),
		Units:        []BookingUnit{{Name: "Deluxe", Quantity: 1, PriceCents: 10000, TaxCents: 1000}},
		Status:       booking.StatusPending,
		FeeCents:     500,
		CreatedAt:    time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithServiceType(st listing.ServiceType) *BookingBuilder {
	b.ServiceType = st
	return b
}

func (b *BookingBuilder) WithListingID(id uuid.UUID) *BookingBuilder {
	b.ListingID = id
	return b
}

func (b *BookingBuilder) WithCustomerID(id uuid.UUID) *BookingBuilder {
	b.CustomerID = id
	return b
}

func (b *BookingBuilder) WithDates(start, end time.Time) *BookingBuilder {
	b.Start = start
	b.End = end
	return b
}

func (b *BookingBuilder) WithUnits(units ...BookingUnit) *BookingBuilder {
	b.Units = units
	return b
}

func (b *BookingBuilder) WithCoupon(code string) *BookingBuilder {
	b.CouponCode = &code
	return b
}

func (b *BookingBuilder) WithGuests(n int) *BookingBuilder {
	b.Guests = &n
	return b
}

func (b *BookingBuilder) WithStatus(s booking.Status) *BookingBuilder {
	b.Status = s
	return b
}

// BuildRequest renders the JSON body of POST /api/bookings using the
// field names of the builder's service type.
func (b *BookingBuilder) BuildRequest() map[string]any {
	body := map[string]any{}
	start, end := b.Start.Format(requestDateLayout), b.End.Format(requestDateLayout)

	units := make([]map[string]any, 0, len(b.Units))
	for _, u := range b.Units {
		m := map[string]any{"quantity": u.Quantity}
		if u.ID != nil {
			m["id"] = u.ID.String()
		}
		if u.Name != "" {
			m["name"] = u.Name
		}
		units = append(units, m)
	}

	switch b.ServiceType {
	case listing.ServiceStay:
		body["stayId"] = b.ListingID.String()
		body["checkIn"], body["checkOut"] = start, end
		body["rooms"] = units
	case listing.ServiceVehicle:
		body["vehicleId"] = b.ListingID.String()
		body["pickupDate"], body["dropoffDate"] = start, end
		body["vehicles"] = units
	case listing.ServiceTour:
		body["tourId"] = b.ListingID.String()
		body["startDate"], body["endDate"] = start, end
		body["options"] = units
	default:
		body["adventureId"] = b.ListingID.String()
		body["startDate"], body["endDate"] = start, end
		body["options"] = units
	}
	if b.Guests != nil {
		body["guests"] = *b.Guests
	}
	if b.CouponCode != nil {
		body["couponCode"] = *b.CouponCode
	}
	if b.Note != "" {
		body["note"] = b.Note
	}
	return body
}

func (b *BookingBuilder) nights() int64 {
	r, err := booking.NewDateRange(b.Start, b.End)
	if err != nil {
		return 1
	}
	return r.Units()
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	n := b.nights()
	v := &queries.BookingView{
		ID:            uuid.New(),
		ListingID:     b.ListingID,
		ListingTitle:  b.ListingTitle,
		VendorID:      b.VendorID,
		CustomerID:    b.CustomerID,
		CustomerEmail: b.Email,
		ServiceType:   b.ServiceType.String(),
		StartDate:     b.Start,
		EndDate:       b.End,
		Guests:        b.Guests,
		FeeCents:      b.FeeCents,
		CouponCode:    b.CouponCode,
		Status:        b.Status.String(),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.CreatedAt,
	}
	for _, u := range b.Units {
		v.Items = append(v.Items, queries.BookingItemView{
			UnitID:         u.ID,
			UnitName:       u.Name,
			Quantity:       u.Quantity,
			UnitPriceCents: u.PriceCents,
			UnitTaxCents:   u.TaxCents,
		})
		v.SubtotalCents += u.PriceCents * int64(u.Quantity) * n
		v.TaxCents += u.TaxCents * int64(u.Quantity) * n
	}
	v.TotalCents = v.SubtotalCents + v.TaxCents + v.FeeCents
	return v
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	v := b.BuildView()
	return &queries.BookingListItem{
		ID:           v.ID,
		ListingID:    v.ListingID,
		ListingTitle: v.ListingTitle,
		ServiceType:  v.ServiceType,
		StartDate:    v.StartDate,
		EndDate:      v.EndDate,
		Status:       v.Status,
		TotalCents:   v.TotalCents,
		CreatedAt:    v.CreatedAt,
	}
}
