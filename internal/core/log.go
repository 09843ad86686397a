package core

import (
	"log/slog"
	"sync/atomic"
)

var (
	// custom is the logger installed by SetLogger; nil means none.
	custom atomic.Pointer[slog.Logger]

	// derived caches slog.Default() with the component attribute. SetLogger
	// clears it so that a later slog.SetDefault is picked up.
	derived atomic.Pointer[slog.Logger]
)

// Logger returns the logger installed by SetLogger, or slog.Default() with
// component=ravenembed when there is none. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := custom.Load(); l != nil {
		return l
	}
	if l := derived.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "ravenembed")
	if !derived.CompareAndSwap(nil, l) {
		// Another goroutine cached one first. It may already have been
		// cleared again by SetLogger, in which case ours is as good.
		if winner := derived.Load(); winner != nil {
			return winner
		}
	}
	return l
}

// SetLogger installs l as the package logger. A nil l restores the default,
// re-derived from slog.Default() on the next Logger call.
func SetLogger(l *slog.Logger) {
	custom.Store(l)
	derived.Store(nil)
}
