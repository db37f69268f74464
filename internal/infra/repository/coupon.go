package repository

import (
	"context"
	"strings"

	"travel-booking/internal/infra"
	"travel-booking/internal/infra/db"
	"travel-booking/internal/pkg/pgconv"
	"travel-booking/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CouponRepository struct {
	db db.DBTX
}

func NewCouponRepository(dbtx db.DBTX) *CouponRepository {
	return &CouponRepository{db: dbtx}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*shared.CouponSnapshot, error) {
	query, args, err := db.Builder.
		Select("id", "code", "discount_type", "discount_value", "min_purchase_cents", "max_discount_cents",
			"start_date", "expiry_date", "active", "usage_limit", "used_count").
		From("coupons").
		Where(squirrel.Eq{"code": strings.ToUpper(strings.TrimSpace(code))}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build coupon query", err, infra.KindDBFailure)
	}

	var (
		snap        shared.CouponSnapshot
		value       pgtype.Numeric
		minPurchase pgtype.Int8
		maxDiscount pgtype.Int8
		startDate   pgtype.Timestamptz
		expiryDate  pgtype.Timestamptz
		usageLimit  pgtype.Int4
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.Code, &snap.Type, &value, &minPurchase, &maxDiscount,
		&startDate, &expiryDate, &snap.Active, &usageLimit, &snap.UsedCount,
	); err != nil {
		return nil, infra.WrapRepoErr("failed to find coupon", err)
	}

	snap.Value, err = pgconv.Float64FromNumeric(value)
	if err != nil {
		return nil, infra.WrapRepoErr("coupon has an invalid discount value", err, infra.KindDBFailure)
	}
	snap.MinPurchaseCents = pgconv.Int64Ptr(minPurchase)
	snap.MaxDiscountCents = pgconv.Int64Ptr(maxDiscount)
	snap.StartDate = pgconv.TimePtr(startDate)
	snap.ExpiryDate = pgconv.TimePtr(expiryDate)
	snap.UsageLimit = pgconv.IntPtr(usageLimit)
	return &snap, nil
}

// ConsumeUse increments used_count only while the limit has room, so two
// transactions racing for the last use cannot both succeed.
func (r *CouponRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := db.Builder.
		Update("coupons").
		Set("used_count", squirrel.Expr("used_count + 1")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Or{
			squirrel.Eq{"usage_limit": nil},
			squirrel.Expr("used_count < usage_limit"),
		}).
		ToSql()
	if err != nil {
		return false, infra.WrapRepoErr("failed to build coupon usage update", err, infra.KindDBFailure)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, infra.WrapRepoErr("failed to consume coupon use", err)
	}
	return tag.RowsAffected() == 1, nil
}
