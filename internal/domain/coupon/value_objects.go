package coupon

import (
	"math"
	"regexp"
	"strings"

	"travel-booking/internal/pkg/errs"
)

var (
	ErrInvalidCouponCode      = errs.New("invalid coupon code format")
	ErrInvalidDiscountType    = errs.New("discount type must be percentage or fixed")
	ErrInvalidDiscountAmount  = errs.New("discount amount cannot be negative")
	ErrInvalidDiscountPercent = errs.New("percentage discount must be between 0 and 100")
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Code string

func NewCouponCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !couponCodeRegex.MatchString(code) {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) IsValid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Discount keeps percentages in basis points so the amount stays integral.
type Discount struct {
	kind             DiscountType
	percentBps       int64
	amountOffCents   int64
	maxDiscountCents *int64
}

func NewFixedDiscount(amountOffCents int64) (Discount, error) {
	if amountOffCents < 0 {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{kind: DiscountFixed, amountOffCents: amountOffCents}, nil
}

func NewPercentageDiscount(percentOff float64, maxDiscountCents *int64) (Discount, error) {
	if math.IsNaN(percentOff) || percentOff < 0 || percentOff > 100 {
		return Discount{}, ErrInvalidDiscountPercent
	}
	if maxDiscountCents != nil && *maxDiscountCents < 0 {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{
		kind:             DiscountPercentage,
		percentBps:       int64(math.Round(percentOff * 100)),
		maxDiscountCents: maxDiscountCents,
	}, nil
}

// NewDiscount builds a discount from its stored representation. value is a percentage
// for percentage coupons and an amount in cents for fixed ones.
func NewDiscount(kind DiscountType, value float64, maxDiscountCents *int64) (Discount, error) {
	switch kind {
	case DiscountPercentage:
		return NewPercentageDiscount(value, maxDiscountCents)
	case DiscountFixed:
		if math.IsNaN(value) {
			return Discount{}, ErrInvalidDiscountAmount
		}
		return NewFixedDiscount(int64(math.Round(value)))
	default:
		return Discount{}, ErrInvalidDiscountType
	}
}

func (d Discount) Type() DiscountType { return d.kind }

func (d Discount) IsPercentage() bool {
	return d.kind == DiscountPercentage
}

func (d Discount) IsFixed() bool {
	return d.kind == DiscountFixed
}

func (d Discount) AmountOffCents() int64 {
	return d.amountOffCents
}

func (d Discount) PercentOff() float64 {
	return float64(d.percentBps) / 100
}

func (d Discount) MaxDiscountCents() *int64 {
	return d.maxDiscountCents
}

// CalculateDiscountAmount never returns more than priceCents.
func (d Discount) CalculateDiscountAmount(priceCents int64) int64 {
	if priceCents <= 0 {
		return 0
	}

	var amount int64
	if d.IsPercentage() {
		amount = priceCents * d.percentBps / 10000
		if d.maxDiscountCents != nil && amount > *d.maxDiscountCents {
			amount = *d.maxDiscountCents
		}
	} else {
		amount = d.amountOffCents
	}

	if amount > priceCents {
		return priceCents
	}
	return amount
}
