//go:build unit || e2e

package builder

import (
	"time"

	"travel-booking/internal/domain/listing"
	"travel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type ListingBuilder struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	ServiceType     listing.ServiceType
	Title           string
	Active          bool
	ServiceFeeCents int64
	Units           []queries.UnitView
}

func NewListingBuilder() *ListingBuilder {
	return &ListingBuilder{
		ID:              uuid.New(),
		VendorID:        uuid.New(),
		ServiceType:     listing.ServiceStay,
		Title:           "Seaside Guesthouse",
		Active:          true,
		ServiceFeeCents: 500,
		Units: []queries.UnitView{
			{ID: uuid.New(), Name: "Deluxe", PriceCents: 10000, TaxCents: 1000, Capacity: 2},
			{ID: uuid.New(), Name: "Family", PriceCents: 15000, TaxCents: 1500, Capacity: 4},
		},
	}
}

func (l *ListingBuilder) With(mutate func(*ListingBuilder)) *ListingBuilder {
	mutate(l)
	return l
}

func (l *ListingBuilder) AsInactive() *ListingBuilder {
	l.Active = false
	return l
}

func (l *ListingBuilder) BuildView() *queries.ListingView {
	units := make([]queries.UnitView, len(l.Units))
	copy(units, l.Units)
	return &queries.ListingView{
		ID:              l.ID,
		VendorID:        l.VendorID,
		ServiceType:     l.ServiceType.String(),
		Title:           l.Title,
		Active:          l.Active,
		ServiceFeeCents: l.ServiceFeeCents,
		Units:           units,
	}
}

// BuildAvailability marks the named units as taken for [start, end).
func (l *ListingBuilder) BuildAvailability(start, end time.Time, taken ...string) *queries.AvailabilityView {
	busy := make(map[string]bool, len(taken))
	for _, name := range taken {
		busy[name] = true
	}
	v := &queries.AvailabilityView{
		ListingID:     l.ID,
		ServiceType:   l.ServiceType.String(),
		StartDate:     start,
		EndDate:       end,
		Duration:      int64(end.Sub(start).Hours() / 24),
		DurationLabel: l.ServiceType.DurationLabel(),
	}
	for _, u := range l.Units {
		v.Units = append(v.Units, queries.UnitAvailability{UnitView: u, Available: !busy[u.Name]})
	}
	return v
}
