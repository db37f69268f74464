package queries

import (
	"time"

	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound  = errs.New("booking not found")
	ErrListingNotFound  = errs.New("listing not found")
	ErrInvalidCursor    = errs.New("invalid cursor")
	ErrInvalidDateRange = errs.New("end must be after start")
	ErrInvalidStatus    = errs.New("invalid status filter")
)

type BookingItemView struct {
	UnitID         *uuid.UUID `json:"unit_id,omitempty"`
	UnitName       string     `json:"unit_name"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	UnitTaxCents   int64      `json:"unit_tax_cents"`
}

// BookingView represents read-optimized booking data
type BookingView struct {
	ID            uuid.UUID         `json:"id"`
	ListingID     uuid.UUID         `json:"listing_id"`
	ListingTitle  string            `json:"listing_title"`
	VendorID      uuid.UUID         `json:"vendor_id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	CustomerEmail string            `json:"customer_email"`
	ServiceType   string            `json:"service_type"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	Guests        *int              `json:"guests,omitempty"`
	Items         []BookingItemView `json:"items"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TaxCents      int64             `json:"tax_cents"`
	FeeCents      int64             `json:"fee_cents"`
	DiscountCents int64             `json:"discount_cents"`
	TotalCents    int64             `json:"total_cents"`
	CouponID      *uuid.UUID        `json:"coupon_id,omitempty"`
	CouponCode    *string           `json:"coupon_code,omitempty"`
	Status        string            `json:"status"`
	Note          *string           `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type BookingListItem struct {
	ID           uuid.UUID `json:"id"`
	ListingID    uuid.UUID `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	ServiceType  string    `json:"service_type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"total_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type UnitView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	TaxCents   int64     `json:"tax_cents"`
	Capacity   int       `json:"capacity"`
}

type ListingView struct {
	ID              uuid.UUID  `json:"id"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	ServiceType     string     `json:"service_type"`
	Title           string     `json:"title"`
	Active          bool       `json:"active"`
	ServiceFeeCents int64      `json:"service_fee_cents"`
	Units           []UnitView `json:"units"`
}

type UnitAvailability struct {
	UnitView
	Available bool `json:"available"`
}

type AvailabilityView struct {
	ListingID     uuid.UUID          `json:"listing_id"`
	ServiceType   string             `json:"service_type"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	Duration      int64              `json:"duration"`
	DurationLabel string             `json:"duration_label"`
	Units         []UnitAvailability `json:"units"`
}
