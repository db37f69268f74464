package response

import (
	"time"

	"travel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type UnitAvailabilityResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	TaxCents   int64     `json:"taxCents"`
	Capacity   int       `json:"capacity"`
	Available  bool      `json:"available"`
}

type AvailabilityResponse struct {
	ListingID     uuid.UUID                  `json:"listingId"`
	ServiceType   string                     `json:"serviceType"`
	StartDate     time.Time                  `json:"startDate"`
	EndDate       time.Time                  `json:"endDate"`
	Duration      int64                      `json:"duration"`
	DurationLabel string                     `json:"durationLabel"`
	Units         []UnitAvailabilityResponse `json:"units"`
}

func FromAvailabilityView(v *queries.AvailabilityView) *AvailabilityResponse {
	units := make([]UnitAvailabilityResponse, 0, len(v.Units))
	for _, u := range v.Units {
		units = append(units, UnitAvailabilityResponse{
			ID:         u.ID,
			Name:       u.Name,
			PriceCents: u.PriceCents,
			TaxCents:   u.TaxCents,
			Capacity:   u.Capacity,
			Available:  u.Available,
		})
	}
	return &AvailabilityResponse{
		ListingID:     v.ListingID,
		ServiceType:   v.ServiceType,
		StartDate:     v.StartDate,
		EndDate:       v.EndDate,
		Duration:      v.Duration,
		DurationLabel: v.DurationLabel,
		Units:         units,
	}
}
