package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidDateRange = errs.New("end date must be after start date")
	ErrInvalidQuantity  = errs.New("quantity must be greater than zero")
	ErrNegativePrice    = errs.New("price cannot be negative")
	ErrNoteTooLong      = errs.New("note is too long")
	ErrInvalidUnitRef   = errs.New("unit must have an id or a name")
)

const (
	unitDuration  = 24 * time.Hour
	maxNoteLength = 1000
)

// DateRange is the half-open interval [start, end).
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	if !end.After(start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{start: start, end: end}, nil
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

func (r DateRange) Duration() time.Duration {
	return r.end.Sub(r.start)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return other.start.Before(r.end) && other.end.After(r.start)
}

// Units returns the number of billable nights or days, rounding partial days up.
func (r DateRange) Units() int64 {
	d := r.Duration()
	units := int64(d / unitDuration)
	if d%unitDuration != 0 {
		units++
	}
	if units < 1 {
		return 1
	}
	return units
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s,%s)", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}

// UnitRef identifies a bookable unit by id, falling back to its name.
type UnitRef struct {
	ID   *uuid.UUID
	Name string
}

func NewUnitRef(id *uuid.UUID, name string) (UnitRef, error) {
	name = strings.TrimSpace(name)
	if id == nil && name == "" {
		return UnitRef{}, ErrInvalidUnitRef
	}
	return UnitRef{ID: id, Name: name}, nil
}

// Matches compares ids when both sides carry one and names otherwise.
// Two different units sharing a name are indistinguishable without ids.
func (u UnitRef) Matches(other UnitRef) bool {
	if u.ID != nil && other.ID != nil {
		return *u.ID == *other.ID
	}
	return u.Name != "" && u.Name == other.Name
}

func (u UnitRef) Label() string {
	if u.Name != "" {
		return u.Name
	}
	if u.ID != nil {
		return u.ID.String()
	}
	return ""
}

type LineItem struct {
	Unit           UnitRef
	Quantity       int
	UnitPriceCents int64
	UnitTaxCents   int64
}

func NewLineItem(unit UnitRef, quantity int, unitPriceCents, unitTaxCents int64) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	if unitPriceCents < 0 || unitTaxCents < 0 {
		return LineItem{}, ErrNegativePrice
	}
	return LineItem{
		Unit:           unit,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		UnitTaxCents:   unitTaxCents,
	}, nil
}

type Pricing struct {
	SubtotalCents int64
	TaxCents      int64
	FeeCents      int64
	DiscountCents int64
	TotalCents    int64
}

// Gross is the coupon base: subtotal plus taxes, fees excluded.
func (p Pricing) Gross() int64 {
	return p.SubtotalCents + p.TaxCents
}

// WithDiscount applies discount capped at Gross so the total never goes negative.
func (p Pricing) WithDiscount(discountCents int64) Pricing {
	if discountCents < 0 {
		discountCents = 0
	}
	if discountCents > p.Gross() {
		discountCents = p.Gross()
	}
	p.DiscountCents = discountCents
	p.TotalCents = p.SubtotalCents + p.TaxCents + p.FeeCents - discountCents
	return p
}

type Note struct {
	value string
}

func NewNote(value string) (Note, error) {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > maxNoteLength {
		return Note{}, ErrNoteTooLong
	}
	return Note{value: value}, nil
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
