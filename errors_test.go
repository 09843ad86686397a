package ravenembed_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/giantswarm/ravenembed"
)

// publicErrors lists every exported sentinel error.
func publicErrors() map[string]error {
	return map[string]error{
		"ErrAlreadyStarted":        ravenembed.ErrAlreadyStarted,
		"ErrClosed":                ravenembed.ErrClosed,
		"ErrDatabaseInit":          ravenembed.ErrDatabaseInit,
		"ErrInvalidConfig":         ravenembed.ErrInvalidConfig,
		"ErrInvalidDatabaseName":   ravenembed.ErrInvalidDatabaseName,
		"ErrInvalidServerLocation": ravenembed.ErrInvalidServerLocation,
		"ErrInvalidVersion":        ravenembed.ErrInvalidVersion,
		"ErrNoMatchingRuntime":     ravenembed.ErrNoMatchingRuntime,
		"ErrNotStarted":            ravenembed.ErrNotStarted,
		"ErrProvideFailed":         ravenembed.ErrProvideFailed,
		"ErrRuntimeDiscovery":      ravenembed.ErrRuntimeDiscovery,
		"ErrServerNotFound":        ravenembed.ErrServerNotFound,
		"ErrStartupFailed":         ravenembed.ErrStartupFailed,
	}
}

// TestPublicErrorConstants verifies that every exported error constant:
//   - implements the error interface (Error() returns a non-empty string)
//   - matches itself via errors.Is
//   - matches itself when wrapped via fmt.Errorf %w
//   - does not match a different error constant
func TestPublicErrorConstants(t *testing.T) {
	t.Parallel()

	for name, sentinel := range publicErrors() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if sentinel == nil {
				t.Fatalf("%s is nil", name)
			}
			if msg := sentinel.Error(); msg == "" {
				t.Errorf("%s.Error() returned empty string", name)
			}
			if !errors.Is(sentinel, sentinel) {
				t.Errorf("errors.Is(%s, %s) = false, want true (self-match)", name, name)
			}
			wrapped := fmt.Errorf("wrapping: %w", sentinel)
			if !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped %s) = false, want true", name)
			}
			if errors.Is(sentinel, errors.New("some other error")) {
				t.Errorf("errors.Is(%s, errors.New(...)) = true, want false", name)
			}
		})
	}
}

// TestPublicErrorConstantsAreDistinct verifies that no two exported error
// constants are equal to each other.
func TestPublicErrorConstantsAreDistinct(t *testing.T) {
	t.Parallel()

	all := publicErrors()
	for aName, a := range all {
		for bName, b := range all {
			if aName == bName {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("errors.Is(%s, %s) = true: constants must be distinct", aName, bName)
			}
		}
	}
}
