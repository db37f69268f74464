package api

import (
	"net/http"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/domain/listing"
	"travel-booking/internal/handler/httperr"
	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/commands"
	"travel-booking/internal/usecase/queries"
)

func reasonDetail(err error) any {
	return map[string]string{"reason": err.Error()}
}

func conflictDetail(err error) any {
	var ce *booking.ConflictError
	if errs.As(err, &ce) {
		return map[string]any{"units": ce.Units}
	}
	return nil
}

// Validation is checked before not-found so a marked coupon lookup miss stays a 400.
var bookingErrorRules = []httperr.Rule{
	{Target: commands.ErrValidation, Status: http.StatusBadRequest, Message: "Invalid booking request", Detail: reasonDetail},
	{Target: queries.ErrInvalidCursor, Status: http.StatusBadRequest, Message: "Invalid cursor"},
	{Target: queries.ErrInvalidStatus, Status: http.StatusBadRequest, Message: "Invalid status filter"},
	{Target: queries.ErrInvalidDateRange, Status: http.StatusBadRequest, Message: "End must be after start"},
	{Target: commands.ErrListingNotFound, Status: http.StatusNotFound, Message: "Listing not found"},
	{Target: queries.ErrListingNotFound, Status: http.StatusNotFound, Message: "Listing not found"},
	{Target: commands.ErrBookingNotFound, Status: http.StatusNotFound, Message: "Booking not found"},
	{Target: queries.ErrBookingNotFound, Status: http.StatusNotFound, Message: "Booking not found"},
	{Target: commands.ErrBookingForbidden, Status: http.StatusForbidden, Message: "Not allowed to modify this booking"},
	{Target: booking.ErrDateConflict, Status: http.StatusConflict, Message: "Selected units are not available for the chosen dates", Detail: conflictDetail},
	{Target: booking.ErrBookingAlreadyCancelled, Status: http.StatusConflict, Message: "Booking is already cancelled"},
	{Target: booking.ErrInvalidStatusTransition, Status: http.StatusConflict, Message: "Invalid booking status transition", Detail: reasonDetail},
	{Target: commands.ErrIdempotencyInProgress, Status: http.StatusConflict, Message: "A request with this idempotency key is still being processed"},
	{Target: commands.ErrIdempotencyKeyReused, Status: http.StatusConflict, Message: "Idempotency key was already used with a different request"},
	{Target: listing.ErrUnitNotFound, Status: http.StatusInternalServerError, Message: "Requested unit could not be resolved", Detail: reasonDetail},
}
