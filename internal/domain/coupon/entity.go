package coupon

import (
	"time"

	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrCouponNotFound        = errs.New("coupon not found")
	ErrCouponInactive        = errs.New("coupon is not active")
	ErrCouponExpired         = errs.New("coupon has expired")
	ErrCouponNotYetValid     = errs.New("coupon is not yet valid")
	ErrMinimumPurchaseNotMet = errs.New("minimum purchase amount not met")
	ErrUsageLimitReached     = errs.New("coupon usage limit reached")
)

type Coupon struct {
	id               uuid.UUID
	code             Code
	discount         Discount
	minPurchaseCents *int64
	startDate        *time.Time
	expiryDate       *time.Time
	active           bool
	usageLimit       *int
	usedCount        int
}

type Attributes struct {
	ID               uuid.UUID
	Code             string
	Type             DiscountType
	Value            float64
	MinPurchaseCents *int64
	MaxDiscountCents *int64
	StartDate        *time.Time
	ExpiryDate       *time.Time
	Active           bool
	UsageLimit       *int
	UsedCount        int
}

func NewCoupon(attrs Attributes) (*Coupon, error) {
	code, err := NewCouponCode(attrs.Code)
	if err != nil {
		return nil, err
	}

	discount, err := NewDiscount(attrs.Type, attrs.Value, attrs.MaxDiscountCents)
	if err != nil {
		return nil, err
	}

	return &Coupon{
		id:               attrs.ID,
		code:             code,
		discount:         discount,
		minPurchaseCents: attrs.MinPurchaseCents,
		startDate:        attrs.StartDate,
		expiryDate:       attrs.ExpiryDate,
		active:           attrs.Active,
		usageLimit:       attrs.UsageLimit,
		usedCount:        attrs.UsedCount,
	}, nil
}

func (c *Coupon) IsValidAt(t time.Time) bool {
	if c.startDate != nil && t.Before(*c.startDate) {
		return false
	}
	if c.expiryDate != nil && t.After(*c.expiryDate) {
		return false
	}
	return true
}

// Validate checks the coupon against the purchase amount (subtotal plus taxes).
func (c *Coupon) Validate(now time.Time, purchaseCents int64) error {
	if !c.active {
		return ErrCouponInactive
	}
	if c.startDate != nil && now.Before(*c.startDate) {
		return ErrCouponNotYetValid
	}
	if c.expiryDate != nil && now.After(*c.expiryDate) {
		return ErrCouponExpired
	}
	if c.minPurchaseCents != nil && purchaseCents < *c.minPurchaseCents {
		return ErrMinimumPurchaseNotMet
	}
	if !c.HasRemainingUses() {
		return ErrUsageLimitReached
	}
	return nil
}

func (c *Coupon) HasRemainingUses() bool {
	return c.usageLimit == nil || c.usedCount < *c.usageLimit
}

func (c *Coupon) DiscountFor(purchaseCents int64) int64 {
	return c.discount.CalculateDiscountAmount(purchaseCents)
}

func (c *Coupon) ID() uuid.UUID            { return c.id }
func (c *Coupon) Code() Code               { return c.code }
func (c *Coupon) Discount() Discount       { return c.discount }
func (c *Coupon) MinPurchaseCents() *int64 { return c.minPurchaseCents }
func (c *Coupon) StartDate() *time.Time    { return c.startDate }
func (c *Coupon) ExpiryDate() *time.Time   { return c.expiryDate }
func (c *Coupon) IsActive() bool           { return c.active }
func (c *Coupon) UsageLimit() *int         { return c.usageLimit }
func (c *Coupon) UsedCount() int           { return c.usedCount }
