package readstore

import (
	"context"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (r *UserReadStore) UserContact(ctx context.Context, userID uuid.UUID) (*shared.ContactSnapshot, error) {
	query, args, err := db.Builder.
		Select("id", "name", "email").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build user contact query", err, infra.KindDBFailure)
	}

	var c shared.ContactSnapshot
	if err := r.db.QueryRow(ctx, query, args...).Scan(&c.ID, &c.Name, &c.Email); err != nil {
		return nil, infra.WrapRepoErr("failed to find user contact", err)
	}
	return &c, nil
}
