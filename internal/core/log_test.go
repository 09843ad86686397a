package core

import (
	"io"
	"log/slog"
	"testing"
)

func TestSetLogger(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() { SetLogger(nil) })

	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("Logger() did not return the installed logger")
	}

	SetLogger(nil)
	def := Logger()
	if def == custom {
		t.Fatal("Logger() still returns the custom logger after SetLogger(nil)")
	}
	if Logger() != def {
		t.Error("Logger() did not cache the default logger")
	}
}
