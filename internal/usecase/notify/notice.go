package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCustomerConfirmation Kind = "booking.customer_confirmation"
	KindVendorNotification   Kind = "booking.vendor_notification"
	KindAdminNotification    Kind = "booking.admin_notification"
)

// Kinds is the fixed fan-out for a newly created booking.
var Kinds = []Kind{KindCustomerConfirmation, KindVendorNotification, KindAdminNotification}

const JobKindEmail = "email"

type Recipient struct {
	Name  string
	Email string
}

type BookingNotice struct {
	BookingID     uuid.UUID
	ListingTitle  string
	ServiceType   string
	DurationLabel string
	Units         int64
	Start         time.Time
	End           time.Time
	TotalCents    int64
	CouponCode    *string
	Customer      Recipient
	Vendor        Recipient
	// Jobs maps each kind to its outbox row; kinds without a row are still sent.
	Jobs map[Kind]uuid.UUID
}

type Message struct {
	To      Recipient
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type JobStatusRecorder interface {
	MarkStatus(ctx context.Context, jobID uuid.UUID, status string, lastError *string) error
}

// Dispatcher is what commands need; *BookingDispatcher implements it.
type Dispatcher interface {
	DispatchAsync(ctx context.Context, notice BookingNotice)
}
