package patch

// Coalesce returns the value pointed to by ptr if it's not nil, otherwise returns fallback
func Coalesce[T any](ptr *T, fallback T) T {
	if ptr != nil {
		return *ptr
	}
	return fallback
}

// CoalesceIf is Coalesce gated by a switch; a false enabled always yields fallback.
func CoalesceIf[T any](enabled bool, ptr *T, fallback T) T {
	if !enabled {
		return fallback
	}
	return Coalesce(ptr, fallback)
}
