package functional

// Filter returns the elements of in for which keep is true. The input
// slice is never mutated; callers rely on that when filtering shared
// registry snapshots.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Map transforms each element of in with fn, preserving order.
func Map[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
