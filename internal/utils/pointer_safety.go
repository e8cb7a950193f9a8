package utils

// Value dereferences v, returning the zero value for a nil pointer. Used
// where an optional record (e.g. the session user) is rendered without a
// presence check.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}
