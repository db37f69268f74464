package api

import (
	"net/http"

	reqdto "travel-booking/internal/handler/dto/request"
	resdto "travel-booking/internal/handler/dto/response"
	"travel-booking/internal/handler/httperr"
	"travel-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	q queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{q: q}
}

// @Summary Check listing availability
// @Description Lists every unit of the listing with whether it is free for [start, end)
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID"
// @Param start query string true "Start date (RFC3339 or YYYY-MM-DD)"
// @Param end query string true "End date (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /listings/{id}/availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var q reqdto.AvailabilityQuery
	if bindErr := c.ShouldBindQuery(&q); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid query", nil)
		return
	}
	start, end, err := q.Range()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date", reasonDetail(err))
		return
	}

	view, err := h.q.Check(c.Request.Context(), id, start, end)
	if err != nil {
		httperr.Respond(c, err, bookingErrorRules)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}
