package repository

import (
	"context"
	"time"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) (uuid.UUID, error) {
	query, args, err := db.Builder.
		Insert("notification_jobs").
		Columns("kind", "topic", "payload", "status", "run_at").
		Values(kind, topic, payload, shared.NotificationStatusQueued, runAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build notification job insert", err, infra.KindDBFailure)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create notification job", err)
	}
	return id, nil
}

func (r *NotificationRepository) MarkStatus(ctx context.Context, jobID uuid.UUID, status string, lastError *string) error {
	query, args, err := db.Builder.
		Update("notification_jobs").
		Set("status", status).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", lastError).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": jobID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build notification status update", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("notification job not found")
	}
	return nil
}
