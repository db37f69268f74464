package ptr

import "strings"

func Of[T any](v T) *T {
	return &v
}

// TrimmedString returns nil for nil or blank input.
func TrimmedString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
