package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"travel-booking/internal/infra/db"
	"travel-booking/internal/infra/readstore"
	"travel-booking/internal/infra/repository"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/shared"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultBackoffBase = 100 * time.Millisecond

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	db.DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type PostgresUoW struct {
	pool        TxBeginner
	maxRetries  int
	backoffBase time.Duration
}

func NewPostgresUoW(pool *pgxpool.Pool, maxRetries int) shared.UnitOfWork {
	return newPostgresUoW(pool, maxRetries)
}

func newPostgresUoW(pool TxBeginner, maxRetries int) *PostgresUoW {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PostgresUoW{
		pool:        pool,
		maxRetries:  maxRetries,
		backoffBase: defaultBackoffBase,
	}
}

// ReadCommitted is enough: bookings serialise on the listing row lock.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) CommandReads() shared.CommandReads {
	return readstore.NewUserReadStore(u.pool)
}

// Idempotency runs on the pool so claims are visible before the booking transaction commits.
func (u *PostgresUoW) Idempotency() shared.IdempotencyRepository {
	return repository.NewIdempotencyRepository(u.pool)
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		err = fn(ctx, newPgTx(pgxTx))
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !isRetryableError(err) {
			return err
		}
		if attempt == u.maxRetries {
			slog.Error("transaction failed after max retries",
				"attempts", attempt+1,
				"error", err.Error())
			return errs.Mark(err, errMaxRetriesExceeded)
		}

		waitTime := calculateBackoff(attempt, u.backoffBase)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- high bit masked above
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	listingRepo      shared.ListingRepository
	bookingRepo      shared.BookingRepository
	couponRepo       shared.CouponRepository
	idempotencyRepo  shared.IdempotencyRepository
	notificationRepo shared.NotificationRepository
	commandReads     shared.CommandReads
}

func newPgTx(dbtx db.DBTX) *pgTx {
	return &pgTx{dbtx: dbtx}
}

func (t *pgTx) Listings() shared.ListingRepository {
	if t.listingRepo == nil {
		t.listingRepo = repository.NewListingRepository(t.dbtx)
	}
	return t.listingRepo
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = repository.NewBookingRepository(t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Coupons() shared.CouponRepository {
	if t.couponRepo == nil {
		t.couponRepo = repository.NewCouponRepository(t.dbtx)
	}
	return t.couponRepo
}

func (t *pgTx) Idempotency() shared.IdempotencyRepository {
	if t.idempotencyRepo == nil {
		t.idempotencyRepo = repository.NewIdempotencyRepository(t.dbtx)
	}
	return t.idempotencyRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.commandReads == nil {
		t.commandReads = readstore.NewUserReadStore(t.dbtx)
	}
	return t.commandReads
}
