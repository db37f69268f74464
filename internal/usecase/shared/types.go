package shared

import (
	"time"

	"github.com/google/uuid"
)

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"

	NotificationStatusQueued = "queued"
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// Write-side snapshots keep commands independent of read-side query types
type UnitSnapshot struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	TaxCents   int64
	Capacity   int
}

type ListingSnapshot struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	VendorName      string
	VendorEmail     string
	ServiceType     string
	Title           string
	Active          bool
	ServiceFeeCents int64
	Units           []UnitSnapshot
}

type CouponSnapshot struct {
	ID               uuid.UUID
	Code             string
	Type             string
	Value            float64
	MinPurchaseCents *int64
	MaxDiscountCents *int64
	StartDate        *time.Time
	ExpiryDate       *time.Time
	Active           bool
	UsageLimit       *int
	UsedCount        int
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	UserID          uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

type ContactSnapshot struct {
	ID    uuid.UUID
	Name  string
	Email string
}
