package booking

import (
	"strings"

	"travel-booking/internal/pkg/errs"
)

var ErrDateConflict = errs.New("selected units are not available for the chosen dates")

// ConflictError lists the requested units already held by an overlapping booking.
type ConflictError struct {
	Units []string
}

func (e *ConflictError) Error() string {
	return ErrDateConflict.Error() + ": " + strings.Join(e.Units, ", ")
}

func (e *ConflictError) Unwrap() error {
	return ErrDateConflict
}

// CheckAvailability returns the labels of requested units that appear in occupied,
// in request order and without duplicates. occupied must already be restricted to
// non-cancelled bookings overlapping the candidate range.
func CheckAvailability(requested, occupied []UnitRef) []string {
	var conflicts []string
	seen := make(map[string]struct{})
	for _, req := range requested {
		for _, occ := range occupied {
			if !req.Matches(occ) {
				continue
			}
			label := req.Label()
			if _, dup := seen[label]; !dup {
				seen[label] = struct{}{}
				conflicts = append(conflicts, label)
			}
			break
		}
	}
	return conflicts
}

// EnsureAvailable wraps CheckAvailability into a *ConflictError.
func EnsureAvailable(requested, occupied []UnitRef) error {
	if conflicts := CheckAvailability(requested, occupied); len(conflicts) > 0 {
		return &ConflictError{Units: conflicts}
	}
	return nil
}
