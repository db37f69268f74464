package listing

import (
	"strings"

	"travel-booking/internal/pkg/errs"
)

var ErrInvalidServiceType = errs.New("invalid service type")

type ServiceType string

const (
	ServiceStay      ServiceType = "stay"
	ServiceTour      ServiceType = "tour"
	ServiceAdventure ServiceType = "adventure"
	ServiceVehicle   ServiceType = "vehicle"
)

func (s ServiceType) String() string {
	return string(s)
}

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceStay, ServiceTour, ServiceAdventure, ServiceVehicle:
		return true
	default:
		return false
	}
}

// DurationLabel names the billing unit: stays are charged per night, everything else per day.
func (s ServiceType) DurationLabel() string {
	if s == ServiceStay {
		return "nights"
	}
	return "days"
}

// UnitLabel is the customer-facing name of a bookable unit for this service type.
func (s ServiceType) UnitLabel() string {
	switch s {
	case ServiceStay:
		return "room"
	case ServiceVehicle:
		return "vehicle"
	default:
		return "option"
	}
}

func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidServiceType
	}
	return st, nil
}
