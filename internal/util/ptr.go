package util

// Ptr returns a pointer to v. Used for optional config fields where nil
// means "use the default".
func Ptr[T any](v T) *T {
	return &v
}
