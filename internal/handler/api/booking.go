package api

import (
	"net/http"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/domain/booking"
	reqdto "travel-booking/internal/handler/dto/request"
	resdto "travel-booking/internal/handler/dto/response"
	"travel-booking/internal/handler/httperr"
	"travel-booking/internal/handler/middleware"
	"travel-booking/internal/usecase/commands"
	"travel-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Book units of a stay, tour, adventure or vehicle listing for a date range
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "UUID identifying a retried request"
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 201 {object} resdto.BookingResponse
// @Success 200 {object} resdto.BookingResponse "Replayed idempotent request"
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	caller, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}

	var key *uuid.UUID
	if raw := c.GetHeader(IdempotencyKeyHeader); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Idempotency-Key must be a UUID", nil)
			return
		}
		key = &parsed
	}

	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", reasonDetail(err))
		return
	}

	result, err := h.cmds.CreateBooking(c.Request.Context(), input, caller.ID, key)
	if err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), caller, result.BookingID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render booking", nil)
		return
	}
	resp.Replayed = result.IsReplayed

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.Header("Location", "/api/bookings/"+view.ID.String())
	c.JSON(status, resp)
}

// @Summary Get booking
// @Description Visible to the customer who made it, the listing vendor and admins
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	caller, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render booking", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List own bookings
// @Description Newest first, keyset paginated with the nextAfter cursor
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending, confirmed, completed, cancelled)
// @Param limit query int false "Page size (1-100)"
// @Param after query string false "Cursor from a previous page"
// @Success 200 {object} resdto.BookingPageResponse
// @Failure 400 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}

	var filters queries.BookingFilters
	if q.Status != "" {
		st := booking.Status(q.Status)
		filters.Status = &st
	}
	var cursor *queries.Cursor
	if q.After != "" {
		cursor = &queries.Cursor{After: q.After}
	}

	items, next, err := h.q.ListByCustomer(c.Request.Context(), userID, filters, cursor, q.Limit)
	if err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}
	page, err := resdto.FromBookingList(items, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render bookings", nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Cancel booking
// @Description The customer who made the booking or an admin cancels it; units are released immediately
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	caller, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	if err = h.cmds.CancelBooking(c.Request.Context(), id, caller); err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}
	h.renderBooking(c, caller, id)
}

// @Summary Update booking status
// @Description Vendors move bookings of their listings along pending, confirmed, completed; admins may move any booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	caller, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var req reqdto.UpdateBookingStatusRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}
	if err = h.cmds.UpdateBookingStatus(c.Request.Context(), id, booking.Status(req.Status), caller); err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}
	h.renderBooking(c, caller, id)
}

func (h *BookingHandler) renderBooking(c *gin.Context, caller actor.Actor, id uuid.UUID) {
	view, err := h.q.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render booking", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}
