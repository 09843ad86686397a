// Package lazy provides single-flight values that are computed at most once
// no matter how many goroutines ask for them concurrently.
//
// A Value moves through Uninitialized, InProgress and then Ready or Failed.
// Failures are cached: a Value that failed keeps returning the same error.
// Map is a concurrent map of Values keyed by name.
package lazy
