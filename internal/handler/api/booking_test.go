//go:build unit

package api_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/coupon"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/handler/api"
	resdto "travel-booking/internal/handler/dto/response"
	"travel-booking/internal/handler/middleware"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/commands"
	"travel-booking/internal/usecase/queries"
	"travel-booking/tests/common/builder"
	"travel-booking/tests/common/httptest"
	"travel-booking/tests/common/testutil"
	commandsmock "travel-booking/tests/mock/commands"
	queriesmock "travel-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	caller       actor.Actor
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)
	s.caller = actor.New(uuid.New(), actor.RoleCustomer)

	// any bearer token authenticates as s.caller
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		middleware.SetActor(c, s.caller)
		c.Next()
	}

	g := s.router.Group("/api", authMiddleware)
	g.POST("/bookings", s.handler.Create)
	g.GET("/bookings", s.handler.List)
	g.GET("/bookings/:id", s.handler.Get)
	g.POST("/bookings/:id/cancel", s.handler.Cancel)
	g.PATCH("/bookings/:id/status", s.handler.UpdateStatus)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreate() {
	url := "/api/bookings"
	b := builder.NewBookingBuilder().WithCustomerID(s.caller.ID)
	view := b.BuildView()

	s.Run("success: returns 201 with Location and priced body", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.caller.ID, (*uuid.UUID)(nil)).
			DoAndReturn(func(_ any, in commands.CreateBookingInput, _ uuid.UUID, _ *uuid.UUID) (*commands.CreateBookingResult, error) {
				s.Equal(listing.ServiceStay, in.ServiceType)
				s.Equal(b.ListingID, in.ListingID)
				s.Equal(b.Start, in.Start)
				s.Equal(b.End, in.End)
				s.Require().Len(in.Items, 1)
				s.Equal("Deluxe", in.Items[0].Name)
				return &commands.CreateBookingResult{BookingID: view.ID}, nil
			})
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, view.ID).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "token")

		var got resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &got)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Location": "/api/bookings/" + view.ID.String()})
		s.Equal(view.TotalCents, got.TotalCents)
		s.Equal(int64(22500), got.TotalCents)
		s.False(got.Replayed)
	})

	s.Run("success: replayed idempotent request returns 200", func() {
		key := uuid.New()
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.caller.ID, &key).
			Return(&commands.CreateBookingResult{BookingID: view.ID, IsReplayed: true}, nil)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, view.ID).Return(view, nil)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "token",
			map[string]string{api.IdempotencyKeyHeader: key.String()})

		var got resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.True(got.Replayed)
	})

	s.Run("error: malformed idempotency key", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "token",
			map[string]string{api.IdempotencyKeyHeader: "not-a-uuid"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Idempotency-Key")
	})

	s.Run("error: unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	validation := []testCaseBooking{
		{name: "missing listing id", mutate: testutil.Field("stayId", nil), expectCode: http.StatusBadRequest},
		{name: "two listing ids", mutate: testutil.Field("tourId", uuid.NewString()), expectCode: http.StatusBadRequest},
		{name: "missing checkOut", mutate: testutil.Field("checkOut", nil), expectCode: http.StatusBadRequest},
		{name: "malformed date", mutate: testutil.Field("checkIn", "07/01/2030"), expectCode: http.StatusBadRequest},
		{name: "no rooms", mutate: testutil.Field("rooms", []any{}), expectCode: http.StatusBadRequest},
		{name: "zero quantity", mutate: testutil.Field("rooms", []any{map[string]any{"name": "Deluxe", "quantity": 0}}), expectCode: http.StatusBadRequest},
		{name: "note too long", mutate: testutil.Field("note", strings.Repeat("a", 1001)), expectCode: http.StatusBadRequest},
		{name: "service type mismatch", mutate: testutil.Field("serviceType", "vehicle"), expectCode: http.StatusBadRequest},
	}
	for _, tc := range validation {
		s.Run("validation: "+tc.name, func() {
			body := b.BuildRequest()
			tc.mutate(body)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "token")
			s.Equal(tc.expectCode, rec.Code, rec.Body.String())
		})
	}

	mapped := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{name: "expired coupon", err: errs.Mark(coupon.ErrCouponExpired, commands.ErrValidation), expectCode: http.StatusBadRequest, expectMsg: "Invalid booking request"},
		{name: "listing missing", err: errs.Wrap(commands.ErrListingNotFound, "lock listing"), expectCode: http.StatusNotFound, expectMsg: "Listing not found"},
		{name: "idempotency in progress", err: commands.ErrIdempotencyInProgress, expectCode: http.StatusConflict, expectMsg: "still being processed"},
		{name: "idempotency key reused", err: commands.ErrIdempotencyKeyReused, expectCode: http.StatusConflict, expectMsg: "different request"},
		{name: "unknown unit", err: errs.Wrap(listing.ErrUnitNotFound, "resolve unit"), expectCode: http.StatusInternalServerError, expectMsg: "could not be resolved"},
		{name: "unexpected", err: errs.New("connection reset"), expectCode: http.StatusInternalServerError, expectMsg: "Internal server error"},
	}
	for _, tc := range mapped {
		s.Run("mapping: "+tc.name, func() {
			s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "token")
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
		})
	}

	s.Run("mapping: date conflict lists colliding units", func() {
		conflict := errs.Wrap(&booking.ConflictError{Units: []string{"Deluxe"}}, "check availability")
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, conflict)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildRequest(), "token")

		s.Equal(http.StatusConflict, rec.Code)
		body := httptest.DecodeError(s.T(), rec)
		s.Contains(body.Error.Message, "not available")
		s.Equal([]any{"Deluxe"}, body.Detail["units"])
	})
}

// ================================================================================
// TestGet / TestList
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	view := builder.NewBookingBuilder().WithCustomerID(s.caller.ID).BuildView()

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, view.ID).Return(view, nil)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings/"+view.ID.String(), nil, "token")

		var got resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(view.ID, got.ID)
		s.Len(got.Items, 1)
	})

	s.Run("error: not visible to caller", func() {
		id := uuid.New()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, id).Return(nil, queries.ErrBookingNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings/"+id.String(), nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: invalid id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings/abc", nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

func (s *BookingHandlerTestSuite) TestList() {
	items := []*queries.BookingListItem{
		builder.NewBookingBuilder().BuildListItem(),
		builder.NewBookingBuilder().BuildListItem(),
	}

	s.Run("success: forwards filters and returns next cursor", func() {
		confirmed := booking.StatusConfirmed
		next := &queries.Cursor{After: "next-token"}
		s.mockQueries.EXPECT().
			ListByCustomer(gomock.Any(), s.caller.ID, queries.BookingFilters{Status: &confirmed}, &queries.Cursor{After: "abc"}, 2).
			Return(items, next, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings?status=confirmed&limit=2&after=abc", nil, "token")

		var got resdto.BookingPageResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Len(got.Items, 2)
		s.Equal("next-token", got.NextAfter)
	})

	s.Run("success: empty page renders an empty array", func() {
		s.mockQueries.EXPECT().ListByCustomer(gomock.Any(), s.caller.ID, queries.BookingFilters{}, (*queries.Cursor)(nil), 0).
			Return(nil, nil, nil)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings", nil, "token")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"items":[]}`, rec.Body.String())
	})

	s.Run("error: invalid cursor", func() {
		s.mockQueries.EXPECT().ListByCustomer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil, errs.Wrap(queries.ErrInvalidCursor, "decode"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings?after=zzz", nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid cursor")
	})

	s.Run("error: bad query values", func() {
		for _, q := range []string{"status=unknown", "limit=-1", "limit=101"} {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/bookings?"+q, nil, "token")
			s.Equal(http.StatusBadRequest, rec.Code, q)
		}
	})
}

// ================================================================================
// TestCancel / TestUpdateStatus
// ================================================================================

func (s *BookingHandlerTestSuite) TestCancel() {
	view := builder.NewBookingBuilder().WithCustomerID(s.caller.ID).WithStatus(booking.StatusCancelled).BuildView()
	url := "/api/bookings/" + view.ID.String() + "/cancel"

	s.Run("success", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), view.ID, s.caller).Return(nil)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, view.ID).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")

		var got resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("cancelled", got.Status)
	})

	cases := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "not owner", err: commands.ErrBookingForbidden, expectCode: http.StatusForbidden},
		{name: "missing", err: commands.ErrBookingNotFound, expectCode: http.StatusNotFound},
		{name: "already cancelled", err: errs.Wrap(booking.ErrBookingAlreadyCancelled, "cancel"), expectCode: http.StatusConflict},
		{name: "completed", err: errs.Wrap(booking.ErrInvalidStatusTransition, "completed -> cancelled"), expectCode: http.StatusConflict},
	}
	for _, tc := range cases {
		s.Run("error: "+tc.name, func() {
			s.mockCommands.EXPECT().CancelBooking(gomock.Any(), view.ID, s.caller).Return(tc.err)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
			s.Equal(tc.expectCode, rec.Code, rec.Body.String())
		})
	}
}

func (s *BookingHandlerTestSuite) TestUpdateStatus() {
	view := builder.NewBookingBuilder().WithStatus(booking.StatusConfirmed).BuildView()
	url := "/api/bookings/" + view.ID.String() + "/status"

	s.Run("success", func() {
		s.mockCommands.EXPECT().UpdateBookingStatus(gomock.Any(), view.ID, booking.StatusConfirmed, s.caller).Return(nil)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.caller, view.ID).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"status": "confirmed"}, "token")
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	})

	s.Run("error: unknown status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"status": "archived"}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: transition rejected", func() {
		s.mockCommands.EXPECT().UpdateBookingStatus(gomock.Any(), view.ID, booking.StatusPending, s.caller).
			Return(errs.Wrap(booking.ErrInvalidStatusTransition, "confirmed -> pending"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"status": "pending"}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "transition")
	})
}

// ================================================================================
// TestAvailability
// ================================================================================

func TestAvailabilityHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	q := queriesmock.NewMockAvailabilityQueries(ctrl)
	router := gin.New()
	router.GET("/api/listings/:id/availability", api.NewAvailabilityHandler(q).Check)

	l := builder.NewListingBuilder()
	start := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	base := "/api/listings/" + l.ID.String() + "/availability"

	t.Run("success", func(t *testing.T) {
		q.EXPECT().Check(gomock.Any(), l.ID, start, end).Return(l.BuildAvailability(start, end, "Deluxe"), nil)

		rec := httptest.PerformRequest(t, router, http.MethodGet, base+"?start=2030-07-01&end=2030-07-04", nil, "")

		var got resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(t, rec, http.StatusOK, &got)
		if len(got.Units) != 2 || got.Units[0].Available || !got.Units[1].Available {
			t.Fatalf("unexpected availability: %+v", got.Units)
		}
	})

	t.Run("error: inverted range", func(t *testing.T) {
		q.EXPECT().Check(gomock.Any(), l.ID, end, start).Return(nil, queries.ErrInvalidDateRange)
		rec := httptest.PerformRequest(t, router, http.MethodGet, base+"?start=2030-07-04&end=2030-07-01", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusBadRequest, "End must be after start")
	})

	t.Run("error: missing listing", func(t *testing.T) {
		q.EXPECT().Check(gomock.Any(), l.ID, start, end).Return(nil, queries.ErrListingNotFound)
		rec := httptest.PerformRequest(t, router, http.MethodGet, base+"?start=2030-07-01&end=2030-07-04", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusNotFound, "Listing not found")
	})

	t.Run("error: malformed date", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, base+"?start=july&end=2030-07-04", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusBadRequest, "Invalid date")
	})
}
