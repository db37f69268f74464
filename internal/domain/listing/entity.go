package listing

import (
	"strings"

	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrListingUnavailable = errs.New("listing not found or inactive")
	ErrUnitNotFound       = errs.New("bookable unit not found")
	ErrInvalidUnit        = errs.New("invalid bookable unit")
	ErrInvalidListing     = errs.New("invalid listing")
)

// Unit is a room, tour option, adventure option or vehicle option.
type Unit struct {
	id         uuid.UUID
	listingID  uuid.UUID
	name       string
	priceCents int64
	taxCents   int64
	capacity   int
}

func NewUnit(id, listingID uuid.UUID, name string, priceCents, taxCents int64, capacity int) (Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unit{}, errs.Wrap(ErrInvalidUnit, "name is required")
	}
	if priceCents < 0 || taxCents < 0 {
		return Unit{}, errs.Wrap(ErrInvalidUnit, "price and tax cannot be negative")
	}
	if capacity < 1 {
		return Unit{}, errs.Wrap(ErrInvalidUnit, "capacity must be at least 1")
	}
	return Unit{
		id:         id,
		listingID:  listingID,
		name:       name,
		priceCents: priceCents,
		taxCents:   taxCents,
		capacity:   capacity,
	}, nil
}

func (u Unit) ID() uuid.UUID        { return u.id }
func (u Unit) ListingID() uuid.UUID { return u.listingID }
func (u Unit) Name() string         { return u.name }
func (u Unit) PriceCents() int64    { return u.priceCents }
func (u Unit) TaxCents() int64      { return u.taxCents }
func (u Unit) Capacity() int        { return u.capacity }

type Listing struct {
	id              uuid.UUID
	vendorID        uuid.UUID
	serviceType     ServiceType
	title           string
	active          bool
	serviceFeeCents int64
	units           []Unit
}

type Attributes struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	ServiceType     ServiceType
	Title           string
	Active          bool
	ServiceFeeCents int64
	Units           []Unit
}

func NewListing(attrs Attributes) (*Listing, error) {
	if !attrs.ServiceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	if attrs.ServiceFeeCents < 0 {
		return nil, errs.Wrap(ErrInvalidListing, "service fee cannot be negative")
	}
	units := make([]Unit, len(attrs.Units))
	copy(units, attrs.Units)

	return &Listing{
		id:              attrs.ID,
		vendorID:        attrs.VendorID,
		serviceType:     attrs.ServiceType,
		title:           attrs.Title,
		active:          attrs.Active,
		serviceFeeCents: attrs.ServiceFeeCents,
		units:           units,
	}, nil
}

func (l *Listing) ID() uuid.UUID            { return l.id }
func (l *Listing) VendorID() uuid.UUID      { return l.vendorID }
func (l *Listing) ServiceType() ServiceType { return l.serviceType }
func (l *Listing) Title() string            { return l.title }
func (l *Listing) IsActive() bool           { return l.active }
func (l *Listing) ServiceFeeCents() int64   { return l.serviceFeeCents }

func (l *Listing) Units() []Unit {
	out := make([]Unit, len(l.units))
	copy(out, l.units)
	return out
}

// EnsureBookable rejects inactive listings and listings of another service type.
func (l *Listing) EnsureBookable(requested ServiceType) error {
	if !l.active || l.serviceType != requested {
		return ErrListingUnavailable
	}
	return nil
}

// ResolveUnit looks a unit up by id first and falls back to an exact name match.
func (l *Listing) ResolveUnit(id *uuid.UUID, name string) (Unit, error) {
	if id != nil {
		for _, u := range l.units {
			if u.id == *id {
				return u, nil
			}
		}
	}
	if name != "" {
		for _, u := range l.units {
			if u.name == name {
				return u, nil
			}
		}
	}
	return Unit{}, ErrUnitNotFound
}
