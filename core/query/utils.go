// Package query provides a set of utility functions to support the query builder
// and processor.
package query

// IntPtr is a helper function that returns a pointer to an int. Offset and
// Limit use pointers to tell "not supplied" apart from zero.
func IntPtr(i int) *int {
	return &i
}
