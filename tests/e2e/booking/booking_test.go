//go:build e2e

package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	nethttptest "net/http/httptest"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/handler/api"
	"travel-booking/internal/handler/dto/response"
	"travel-booking/tests/common/authtest"
	"travel-booking/tests/common/builder"
	"travel-booking/tests/common/dbtest"
	"travel-booking/tests/common/httptest"
	"travel-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const bookingsURL = "/api/bookings"

type BookingSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

// fixture is one vendor with a two-unit stay and one customer.
type fixture struct {
	customerID    uuid.UUID
	customerToken string
	vendorID      uuid.UUID
	vendorToken   string
	listingID     uuid.UUID
	deluxeID      uuid.UUID
	familyID      uuid.UUID
}

func (s *BookingSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) seed() fixture {
	t := s.T()
	f := fixture{}
	f.customerID = dbtest.CreateTestUser(t, s.DB, "guest@example.com", string(actor.RoleCustomer))
	f.vendorID = dbtest.CreateTestUser(t, s.DB, "host@example.com", string(actor.RoleVendor))
	f.listingID = dbtest.CreateTestListing(t, s.DB, f.vendorID, string(listing.ServiceStay), "Seaside Guesthouse", 500)
	f.deluxeID = dbtest.CreateTestUnit(t, s.DB, f.listingID, "Deluxe", 10000, 1000, 2)
	f.familyID = dbtest.CreateTestUnit(t, s.DB, f.listingID, "Family", 15000, 1500, 4)
	f.customerToken = s.jwt.GenerateToken(t, f.customerID, actor.RoleCustomer)
	f.vendorToken = s.jwt.GenerateToken(t, f.vendorID, actor.RoleVendor)
	return f
}

func (s *BookingSuite) stay(f fixture, startDay, nights int, units ...string) map[string]any {
	start := time.Date(2031, 3, startDay, 0, 0, 0, 0, time.UTC)
	us := make([]builder.BookingUnit, 0, len(units))
	for _, name := range units {
		us = append(us, builder.BookingUnit{Name: name, Quantity: 1})
	}
	return builder.NewBookingBuilder().
		WithListingID(f.listingID).
		WithDates(start, start.AddDate(0, 0, nights)).
		WithUnits(us...).
		BuildRequest()
}

func (s *BookingSuite) create(token string, body map[string]any) (*nethttptest.ResponseRecorder, response.BookingResponse) {
	t := s.T()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, token)
	var got response.BookingResponse
	if w.Code == http.StatusCreated || w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), w.Body.String())
	}
	return w, got
}

func (s *BookingSuite) countJobs(status string) int {
	var n int
	err := s.DB.QueryRow(context.Background(), "SELECT COUNT(*) FROM notification_jobs WHERE status = $1", status).Scan(&n)
	require.NoError(s.T(), err)
	return n
}

// =============================================================================
// TestCreateBooking
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: stay booking is priced from stored units and notified", func() {
		t := s.T()
		f := s.seed()

		w, got := s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.Equal(t, "/api/bookings/"+got.ID.String(), w.Header().Get("Location"))

		deluxe := f.deluxeID
		expected := &response.BookingResponse{
			ListingID:     f.listingID,
			ListingTitle:  "Seaside Guesthouse",
			VendorID:      f.vendorID,
			CustomerID:    f.customerID,
			CustomerEmail: "guest@example.com",
			ServiceType:   "stay",
			StartDate:     time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2031, 3, 3, 0, 0, 0, 0, time.UTC),
			Items: []response.BookingItemResponse{
				{UnitID: &deluxe, UnitName: "Deluxe", Quantity: 1, UnitPriceCents: 10000, UnitTaxCents: 1000},
			},
			SubtotalCents: 20000,
			TaxCents:      2000,
			FeeCents:      500,
			TotalCents:    22500,
			Status:        "pending",
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.BookingResponse{}, "ID", "CreatedAt", "UpdatedAt"),
			cmpopts.EquateApproxTime(time.Second),
		}
		if diff := cmp.Diff(expected, &got, opts...); diff != "" {
			t.Errorf("booking response mismatch (-want +got):\n%s", diff)
		}

		require.Eventually(t, func() bool { return len(s.Mail.Messages()) == 3 }, 5*time.Second, 20*time.Millisecond)
		recipients := map[string]bool{}
		for _, m := range s.Mail.Messages() {
			recipients[m.To.Email] = true
		}
		assert.Equal(t, map[string]bool{"guest@example.com": true, "host@example.com": true, "ops@localhost": true}, recipients)
		require.Eventually(t, func() bool { return s.countJobs("sent") == 3 }, 5*time.Second, 20*time.Millisecond)
	})

	s.Run("Normal case: detail is visible to vendor but hidden from strangers", func() {
		t := s.T()
		f := s.seed()
		_, created := s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, f.vendorToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		strangerID := dbtest.CreateTestUser(t, s.DB, "stranger@example.com", string(actor.RoleCustomer))
		stranger := s.jwt.GenerateToken(t, strangerID, actor.RoleCustomer)
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, stranger)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Booking not found")
	})

	s.Run("Error case: unknown and inactive listings are 404", func() {
		t := s.T()
		f := s.seed()

		body := s.stay(f, 1, 2, "Deluxe")
		body["stayId"] = uuid.NewString()
		w, _ := s.create(f.customerToken, body)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Listing not found")

		dbtest.DeactivateListing(t, s.DB, f.listingID)
		w, _ = s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Listing not found")
	})

	s.Run("Error case: guests above capacity is a validation error", func() {
		t := s.T()
		f := s.seed()

		body := s.stay(f, 1, 2, "Deluxe")
		body["guests"] = 3
		w, _ := s.create(f.customerToken, body)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid booking request")
	})

	s.Run("Error case: unauthenticated", func() {
		t := s.T()
		f := s.seed()
		w, _ := s.create("", s.stay(f, 1, 2, "Deluxe"))
		require.Equal(t, http.StatusUnauthorized, w.Code)

		expired := s.jwt.CreateExpiredToken(t, f.customerID, actor.RoleCustomer)
		w, _ = s.create(expired, s.stay(f, 1, 2, "Deluxe"))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestAvailability - overlap, adjacency and cancellation
// =============================================================================

func (s *BookingSuite) TestAvailability() {
	s.Run("Error case: overlapping booking of the same unit is 409 with unit names", func() {
		t := s.T()
		f := s.seed()

		w, _ := s.create(f.customerToken, s.stay(f, 10, 3, "Deluxe"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w, _ = s.create(f.customerToken, s.stay(f, 11, 1, "Family", "Deluxe"))
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		body := httptest.DecodeError(t, w)
		assert.Equal(t, []any{"Deluxe"}, body.Detail["units"])
	})

	s.Run("Normal case: back-to-back and other-unit bookings succeed", func() {
		t := s.T()
		f := s.seed()

		w, _ := s.create(f.customerToken, s.stay(f, 10, 3, "Deluxe"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w, _ = s.create(f.customerToken, s.stay(f, 13, 2, "Deluxe"))
		require.Equal(t, http.StatusCreated, w.Code, "checkout day is bookable again: %s", w.Body.String())

		w, _ = s.create(f.customerToken, s.stay(f, 11, 1, "Family"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	s.Run("Normal case: availability endpoint reflects bookings and cancellation", func() {
		t := s.T()
		f := s.seed()
		_, created := s.create(f.customerToken, s.stay(f, 10, 3, "Deluxe"))

		check := func() map[string]bool {
			url := "/api/listings/" + f.listingID.String() + "/availability?start=2031-03-11&end=2031-03-12"
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
			var got response.AvailabilityResponse
			httptest.AssertSuccessResponse(t, w, http.StatusOK, &got)
			assert.Equal(t, "nights", got.DurationLabel)
			out := map[string]bool{}
			for _, u := range got.Units {
				out[u.Name] = u.Available
			}
			return out
		}
		assert.Equal(t, map[string]bool{"Deluxe": false, "Family": true}, check())

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+created.ID.String()+"/cancel", nil, f.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, map[string]bool{"Deluxe": true, "Family": true}, check())

		w, _ = s.create(f.customerToken, s.stay(f, 10, 3, "Deluxe"))
		require.Equal(t, http.StatusCreated, w.Code, "cancelled booking must free the unit: %s", w.Body.String())
	})

	s.Run("Concurrency: parallel requests for one unit produce exactly one booking", func() {
		t := s.T()
		f := s.seed()

		const n = 8
		payload, err := json.Marshal(s.stay(f, 20, 2, "Deluxe"))
		require.NoError(t, err)

		codes := make([]int, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := nethttptest.NewRequest(http.MethodPost, bookingsURL, bytes.NewReader(payload))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+f.customerToken)
				rec := nethttptest.NewRecorder()
				s.Router.ServeHTTP(rec, req)
				codes[i] = rec.Code
			}()
		}
		wg.Wait()

		created, conflicts := 0, 0
		for _, c := range codes {
			switch c {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicts++
			}
		}
		assert.Equal(t, 1, created, "codes: %v", codes)
		assert.Equal(t, n-1, conflicts, "codes: %v", codes)
		assert.Equal(t, 1, dbtest.CountBookings(t, s.DB, f.listingID))
	})
}

// =============================================================================
// TestCoupons
// =============================================================================

func (s *BookingSuite) TestCoupons() {
	s.Run("Normal case: percentage coupon discounts and consumes one use", func() {
		t := s.T()
		f := s.seed()
		limit := 1
		c := dbtest.NewCouponFixture("SPRING10")
		c.UsageLimit = &limit
		couponID := dbtest.CreateTestCoupon(t, s.DB, c)

		body := s.stay(f, 1, 2, "Deluxe")
		body["couponCode"] = "spring10"
		w, got := s.create(f.customerToken, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, int64(2200), got.DiscountCents)
		assert.Equal(t, int64(20300), got.TotalCents)
		require.NotNil(t, got.CouponCode)
		assert.Equal(t, "SPRING10", *got.CouponCode)
		assert.Equal(t, 1, dbtest.CouponUsedCount(t, s.DB, couponID))

		body = s.stay(f, 5, 1, "Family")
		body["couponCode"] = "SPRING10"
		w, _ = s.create(f.customerToken, body)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid booking request")
		assert.Equal(t, 1, dbtest.CouponUsedCount(t, s.DB, couponID))
	})

	s.Run("Error case: expired, inactive and unknown coupons leave no booking behind", func() {
		t := s.T()
		f := s.seed()

		expired := dbtest.NewCouponFixture("OLD10")
		expired.Start = time.Now().AddDate(-1, 0, 0)
		expired.Expiry = time.Now().AddDate(0, 0, -1)
		dbtest.CreateTestCoupon(t, s.DB, expired)
		inactive := dbtest.NewCouponFixture("OFF10")
		inactive.Active = false
		dbtest.CreateTestCoupon(t, s.DB, inactive)

		for _, code := range []string{"OLD10", "OFF10", "NOPE99"} {
			body := s.stay(f, 1, 2, "Deluxe")
			body["couponCode"] = code
			w, _ := s.create(f.customerToken, body)
			httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid booking request")
		}
		assert.Equal(t, 0, dbtest.CountBookings(t, s.DB, f.listingID))
	})
}

// =============================================================================
// TestIdempotency
// =============================================================================

func (s *BookingSuite) TestIdempotency() {
	s.Run("Normal case: a retried request replays the first booking", func() {
		t := s.T()
		f := s.seed()
		headers := map[string]string{api.IdempotencyKeyHeader: uuid.NewString()}
		body := s.stay(f, 1, 2, "Deluxe")

		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, body, f.customerToken, headers)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first response.BookingResponse
		httptest.DecodeResponseBody(t, w1.Body, &first)

		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, body, f.customerToken, headers)
		require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
		var second response.BookingResponse
		httptest.DecodeResponseBody(t, w2.Body, &second)

		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Replayed)
		assert.Equal(t, 1, dbtest.CountBookings(t, s.DB, f.listingID))
	})

	s.Run("Error case: reusing a key for a different request is 409", func() {
		t := s.T()
		f := s.seed()
		headers := map[string]string{api.IdempotencyKeyHeader: uuid.NewString()}

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, s.stay(f, 1, 2, "Deluxe"), f.customerToken, headers)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, s.stay(f, 1, 2, "Family"), f.customerToken, headers)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "different request")
	})

	s.Run("Normal case: a failed attempt releases the key for a corrected retry", func() {
		t := s.T()
		f := s.seed()
		headers := map[string]string{api.IdempotencyKeyHeader: uuid.NewString()}

		bad := s.stay(f, 1, 2, "Deluxe")
		bad["guests"] = 9
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, bad, f.customerToken, headers)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, s.stay(f, 1, 2, "Deluxe"), f.customerToken, headers)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestLifecycle - cancel, status updates and listing
// =============================================================================

func (s *BookingSuite) TestLifecycle() {
	s.Run("Normal case: vendor confirms and completes; cancelling a completed booking is 409", func() {
		t := s.T()
		f := s.seed()
		_, created := s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))
		statusURL := bookingsURL + "/" + created.ID.String() + "/status"

		for _, next := range []string{"confirmed", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": next}, f.vendorToken)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var got response.BookingResponse
			httptest.DecodeResponseBody(t, w.Body, &got)
			assert.Equal(t, next, got.Status)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+created.ID.String()+"/cancel", nil, f.customerToken)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("Error case: customers cannot change status and foreign vendors do not see the booking", func() {
		t := s.T()
		f := s.seed()
		_, created := s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))
		statusURL := bookingsURL + "/" + created.ID.String() + "/status"

		w := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": "confirmed"}, f.customerToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

		otherID := dbtest.CreateTestUser(t, s.DB, "rival@example.com", string(actor.RoleVendor))
		rival := s.jwt.GenerateToken(t, otherID, actor.RoleVendor)
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL, map[string]any{"status": "confirmed"}, rival)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Booking not found")
	})

	s.Run("Error case: cancelling twice or someone else's booking", func() {
		t := s.T()
		f := s.seed()
		_, created := s.create(f.customerToken, s.stay(f, 1, 2, "Deluxe"))
		cancelURL := bookingsURL + "/" + created.ID.String() + "/cancel"

		strangerID := dbtest.CreateTestUser(t, s.DB, "stranger@example.com", string(actor.RoleCustomer))
		stranger := s.jwt.GenerateToken(t, strangerID, actor.RoleCustomer)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, stranger)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Booking not found")

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.vendorToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "already cancelled")
	})

	s.Run("Normal case: own bookings are keyset paginated newest first", func() {
		t := s.T()
		f := s.seed()
		var ids []uuid.UUID
		for _, day := range []int{1, 5, 9} {
			w, created := s.create(f.customerToken, s.stay(f, day, 1, "Deluxe"))
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			ids = append(ids, created.ID)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?limit=2", nil, f.customerToken)
		var page1 response.BookingPageResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &page1)
		require.Len(t, page1.Items, 2)
		require.NotEmpty(t, page1.NextAfter)
		assert.Equal(t, ids[2], page1.Items[0].ID)
		assert.Equal(t, ids[1], page1.Items[1].ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?limit=2&after="+page1.NextAfter, nil, f.customerToken)
		var page2 response.BookingPageResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &page2)
		require.Len(t, page2.Items, 1)
		assert.Equal(t, ids[0], page2.Items[0].ID)
		assert.Empty(t, page2.NextAfter)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?status=cancelled", nil, f.customerToken)
		var none response.BookingPageResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &none)
		assert.Empty(t, none.Items)
	})
}
