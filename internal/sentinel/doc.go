// Package sentinel provides an immutable error type for sentinel error
// declarations.
//
// Error values can be declared as const, so no caller can reassign them, and
// they stay comparable through wrapped chains with errors.Is. Errorf attaches
// detail to a sentinel without losing that comparability.
package sentinel
