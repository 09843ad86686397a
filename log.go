package ravenembed

import (
	"log/slog"

	"github.com/giantswarm/ravenembed/internal/core"
)

// SetLogger replaces the package-level logger used by ravenembed.
// This allows applications to integrate ravenembed logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; ravenembed adds only a "server" attribute carrying the
// Server's ID.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next call and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// A Server captures the logger when it is created, so call SetLogger before
// NewServer.
//
// Example:
//
//	ravenembed.SetLogger(myLogger.With("component", "ravenembed"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
