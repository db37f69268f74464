package request

import (
	"strings"
	"time"

	"travel-booking/internal/domain/listing"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/pkg/ptr"
	"travel-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

var (
	ErrServiceTypeUnknown = errs.New("exactly one of stayId, tourId, adventureId or vehicleId is required")
	ErrServiceTypeIDClash = errs.New("serviceType does not match the supplied listing id")
	ErrMissingDates       = errs.New("start and end dates are required")
	ErrNoUnits            = errs.New("at least one unit is required")
)

type UnitRequest struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Name     string     `json:"name,omitempty" binding:"omitempty,max=200"`
	Quantity int        `json:"quantity" binding:"required,min=1,max=100"`
	Price    *int64     `json:"price,omitempty" binding:"omitempty,min=0"`
	Tax      *int64     `json:"tax,omitempty" binding:"omitempty,min=0"`
}

// CreateBookingRequest covers every service type; the listing id field
// that is present decides which date and unit fields apply.
type CreateBookingRequest struct {
	ServiceType string     `json:"serviceType,omitempty"`
	StayID      *uuid.UUID `json:"stayId,omitempty"`
	TourID      *uuid.UUID `json:"tourId,omitempty"`
	AdventureID *uuid.UUID `json:"adventureId,omitempty"`
	VehicleID   *uuid.UUID `json:"vehicleId,omitempty"`

	CheckIn     *Date `json:"checkIn,omitempty"`
	CheckOut    *Date `json:"checkOut,omitempty"`
	StartDate   *Date `json:"startDate,omitempty"`
	EndDate     *Date `json:"endDate,omitempty"`
	PickupDate  *Date `json:"pickupDate,omitempty"`
	DropoffDate *Date `json:"dropoffDate,omitempty"`

	Rooms    []UnitRequest `json:"rooms,omitempty" binding:"omitempty,dive"`
	Options  []UnitRequest `json:"options,omitempty" binding:"omitempty,dive"`
	Vehicles []UnitRequest `json:"vehicles,omitempty" binding:"omitempty,dive"`

	Guests     *int    `json:"guests,omitempty" binding:"omitempty,min=1,max=1000"`
	CouponCode *string `json:"couponCode,omitempty" binding:"omitempty,max=32"`
	Note       string  `json:"note,omitempty" binding:"max=1000"`
}

func (r CreateBookingRequest) ToInput() (commands.CreateBookingInput, error) {
	st, listingID, err := r.resolveListing()
	if err != nil {
		return commands.CreateBookingInput{}, err
	}

	start, end := r.dates(st)
	if start == nil || end == nil {
		return commands.CreateBookingInput{}, ErrMissingDates
	}

	units := r.units(st)
	if len(units) == 0 {
		return commands.CreateBookingInput{}, ErrNoUnits
	}
	items := make([]commands.UnitSelection, 0, len(units))
	for _, u := range units {
		items = append(items, commands.UnitSelection{
			UnitID:     u.ID,
			Name:       strings.TrimSpace(u.Name),
			Quantity:   u.Quantity,
			PriceCents: u.Price,
			TaxCents:   u.Tax,
		})
	}

	return commands.CreateBookingInput{
		ServiceType: st,
		ListingID:   listingID,
		Start:       start.Time,
		End:         end.Time,
		Items:       items,
		Guests:      r.Guests,
		CouponCode:  r.couponCode(),
		Note:        r.Note,
	}, nil
}

func (r CreateBookingRequest) resolveListing() (listing.ServiceType, uuid.UUID, error) {
	candidates := map[listing.ServiceType]*uuid.UUID{
		listing.ServiceStay:      r.StayID,
		listing.ServiceTour:      r.TourID,
		listing.ServiceAdventure: r.AdventureID,
		listing.ServiceVehicle:   r.VehicleID,
	}

	var (
		found listing.ServiceType
		id    uuid.UUID
		count int
	)
	for st, v := range candidates {
		if v != nil && *v != uuid.Nil {
			found, id = st, *v
			count++
		}
	}
	if count != 1 {
		return "", uuid.Nil, ErrServiceTypeUnknown
	}

	if strings.TrimSpace(r.ServiceType) != "" {
		declared, err := listing.ParseServiceType(r.ServiceType)
		if err != nil {
			return "", uuid.Nil, err
		}
		if declared != found {
			return "", uuid.Nil, ErrServiceTypeIDClash
		}
	}
	return found, id, nil
}

// dates prefers the fields named for the service type and falls back to startDate/endDate.
func (r CreateBookingRequest) dates(st listing.ServiceType) (*Date, *Date) {
	switch st {
	case listing.ServiceStay:
		if r.CheckIn != nil || r.CheckOut != nil {
			return r.CheckIn, r.CheckOut
		}
	case listing.ServiceVehicle:
		if r.PickupDate != nil || r.DropoffDate != nil {
			return r.PickupDate, r.DropoffDate
		}
	}
	return r.StartDate, r.EndDate
}

func (r CreateBookingRequest) units(st listing.ServiceType) []UnitRequest {
	switch st {
	case listing.ServiceStay:
		return r.Rooms
	case listing.ServiceVehicle:
		return r.Vehicles
	default:
		return r.Options
	}
}

func (r CreateBookingRequest) couponCode() *string {
	return ptr.TrimmedString(r.CouponCode)
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

type ListBookingsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	After  string `form:"after"`
}

type AvailabilityQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

func (q AvailabilityQuery) Range() (time.Time, time.Time, error) {
	start, err := ParseDate(q.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(q.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
