package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const markStatusTimeout = 5 * time.Second

var ErrNoRecipient = errs.New("recipient has no email address")

type BookingDispatcher struct {
	mailer  Mailer
	jobs    JobStatusRecorder
	admin   Recipient
	timeout time.Duration
	logger  *slog.Logger

	inflight sync.WaitGroup
}

func NewBookingDispatcher(mailer Mailer, jobs JobStatusRecorder, adminEmail string, timeout time.Duration, logger *slog.Logger) *BookingDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingDispatcher{
		mailer:  mailer,
		jobs:    jobs,
		admin:   Recipient{Name: "Admin", Email: adminEmail},
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch sends all booking emails concurrently and waits for them.
// Delivery failures are logged and recorded on the outbox job, never returned.
func (d *BookingDispatcher) Dispatch(ctx context.Context, notice BookingNotice) {
	var g errgroup.Group
	for _, kind := range Kinds {
		g.Go(func() error {
			d.deliver(ctx, kind, notice)
			return nil
		})
	}
	_ = g.Wait()
}

// DispatchAsync detaches from the request so a finished response does not cancel delivery.
func (d *BookingDispatcher) DispatchAsync(ctx context.Context, notice BookingNotice) {
	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		d.Dispatch(ctx, notice)
	}()
}

// Wait blocks until in-flight async dispatches finish or ctx is done.
func (d *BookingDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *BookingDispatcher) deliver(ctx context.Context, kind Kind, notice BookingNotice) {
	msg := buildMessage(kind, notice, d.admin)

	var err error
	if msg.To.Email == "" {
		err = ErrNoRecipient
	} else {
		err = d.mailer.Send(ctx, msg)
	}

	if err != nil {
		d.logger.Warn("booking notification failed",
			"booking_id", notice.BookingID.String(),
			"kind", string(kind),
			"error", err.Error())
	} else {
		d.logger.Info("booking notification sent",
			"booking_id", notice.BookingID.String(),
			"kind", string(kind))
	}

	jobID, ok := notice.Jobs[kind]
	if !ok || jobID == uuid.Nil {
		return
	}
	status := shared.NotificationStatusSent
	var lastError *string
	if err != nil {
		status = shared.NotificationStatusFailed
		errMsg := err.Error()
		lastError = &errMsg
	}
	// the delivery context may already be past its deadline
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markStatusTimeout)
	defer cancel()
	if markErr := d.jobs.MarkStatus(markCtx, jobID, status, lastError); markErr != nil {
		d.logger.Error("failed to record notification status",
			"job_id", jobID.String(),
			"error", markErr.Error())
	}
}
