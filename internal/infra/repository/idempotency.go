package repository

import (
	"context"
	"time"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/pkg/pgconv"
	"travel-booking/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	query, args, err := db.Builder.
		Insert("idempotency_keys").
		Columns("key", "user_id", "endpoint", "request_hash", "status", "expires_at").
		Values(key, userID, endpoint, requestHash, shared.IdempotencyStatusProcessing, expiresAt).
		Suffix("ON CONFLICT (key, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, infra.WrapRepoErr("failed to build idempotency insert", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	query, args, err := db.Builder.
		Select("key", "user_id", "status", "request_hash", "result_booking_id", "expires_at").
		From("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build idempotency query", err, infra.KindDBFailure)
	}

	var (
		rec    shared.IdempotencyRecord
		result pgtype.UUID
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&rec.Key, &rec.UserID, &rec.Status, &rec.RequestHash, &result, &rec.ExpiresAt,
	); err != nil {
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	rec.ResultBookingID = pgconv.UUIDPtr(result)
	return &rec, nil
}

// ClaimExpired takes over a key whose previous holder let it lapse.
func (r *IdempotencyRepository) ClaimExpired(ctx context.Context, key, userID uuid.UUID, requestHash string, now, expiresAt time.Time) (bool, error) {
	query, args, err := db.Builder.
		Update("idempotency_keys").
		Set("request_hash", requestHash).
		Set("status", shared.IdempotencyStatusProcessing).
		Set("result_booking_id", nil).
		Set("expires_at", expiresAt).
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return false, infra.WrapRepoErr("failed to build idempotency claim", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key, userID, bookingID uuid.UUID) error {
	query, args, err := db.Builder.
		Update("idempotency_keys").
		Set("status", shared.IdempotencyStatusCompleted).
		Set("result_booking_id", bookingID).
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build idempotency completion", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("idempotency key not found")
	}
	return nil
}

// Release drops an unfinished claim so the client can retry with the same key.
func (r *IdempotencyRepository) Release(ctx context.Context, key, userID uuid.UUID) error {
	query, args, err := db.Builder.
		Delete("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID, "status": shared.IdempotencyStatusProcessing}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build idempotency release", err, infra.KindDBFailure)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := db.Builder.
		Delete("idempotency_keys").
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build idempotency cleanup", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
