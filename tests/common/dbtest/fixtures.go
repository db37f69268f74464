//go:build unit || e2e

package dbtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const AdminEmail = "admin@example.com"

func CreateTestUser(t *testing.T, db DBLike, email, role string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()
	name := strings.SplitN(email, "@", 2)[0]

	tag, err := db.Exec(ctx, "INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING",
		userID, name, email, role)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		require.NoError(t, db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID))
	}

	return userID
}

func CreateTestListing(t *testing.T, db DBLike, vendorID uuid.UUID, serviceType, title string, feeCents int64) uuid.UUID {
	t.Helper()

	listingID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO listings (id, vendor_id, service_type, title, service_fee_cents) VALUES ($1, $2, $3, $4, $5)",
		listingID, vendorID, serviceType, title, feeCents)
	require.NoError(t, err)
	return listingID
}

func DeactivateListing(t *testing.T, db DBLike, listingID uuid.UUID) {
	t.Helper()
	_, err := db.Exec(context.Background(), "UPDATE listings SET active = false WHERE id = $1", listingID)
	require.NoError(t, err)
}

func CreateTestUnit(t *testing.T, db DBLike, listingID uuid.UUID, name string, priceCents, taxCents int64, capacity int) uuid.UUID {
	t.Helper()

	unitID := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO bookable_units (id, listing_id, name, price_cents, tax_cents, capacity, position)
		 VALUES ($1, $2, $3, $4, $5, $6, (SELECT COUNT(*) FROM bookable_units WHERE listing_id = $2))`,
		unitID, listingID, name, priceCents, taxCents, capacity)
	require.NoError(t, err)
	return unitID
}

type CouponFixture struct {
	Code        string
	Type        string
	Value       float64
	MaxDiscount *int64
	UsageLimit  *int
	Active      bool
	Start       time.Time
	Expiry      time.Time
}

func NewCouponFixture(code string) CouponFixture {
	now := time.Now().UTC()
	return CouponFixture{
		Code:   code,
		Type:   "percentage",
		Value:  10,
		Active: true,
		Start:  now.AddDate(0, 0, -1),
		Expiry: now.AddDate(1, 0, 0),
	}
}

func CreateTestCoupon(t *testing.T, db DBLike, c CouponFixture) uuid.UUID {
	t.Helper()

	couponID := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO coupons (id, code, discount_type, discount_value, max_discount_cents, start_date, expiry_date, active, usage_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		couponID, strings.ToUpper(c.Code), c.Type, c.Value, c.MaxDiscount, c.Start, c.Expiry, c.Active, c.UsageLimit)
	require.NoError(t, err)
	return couponID
}

func CouponUsedCount(t *testing.T, db DBLike, couponID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT used_count FROM coupons WHERE id = $1", couponID).Scan(&n))
	return n
}

func CountBookings(t *testing.T, db DBLike, listingID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT COUNT(*) FROM bookings WHERE listing_id = $1", listingID).Scan(&n))
	return n
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, name, email, role) VALUES
		    (gen_random_uuid(), 'admin', $1, 'admin')
		ON CONFLICT (email) DO NOTHING;
	`, AdminEmail)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		stmt, err := buildTruncate(ctx, pool)
		if err != nil {
			stmt = ""
		}
		truncateSQL.Store(stmt)
	})
	stmt, _ := truncateSQL.Load().(string)
	if stmt == "" {
		return errors.New("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}

func buildTruncate(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	rows, err := pool.Query(ctx, `
	  SELECT 'public.' || quote_ident(tablename)
	  FROM pg_tables
	  WHERE schemaname = 'public'
	    AND tablename NOT IN ('atlas_schema_revisions')`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "SELECT 1", nil
	}
	return "TRUNCATE " + strings.Join(tables, ", ") + " CASCADE;", nil
}
