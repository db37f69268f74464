package booking

import "travel-booking/internal/pkg/errs"

var ErrInvalidStatus = errs.New("invalid booking status")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// HoldsUnits reports whether a booking in this status still occupies its units.
func (s Status) HoldsUnits() bool {
	return s != StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
