package process

import (
	"slices"
	"testing"
)

// Exit hooks are process-global, so these tests do not run in parallel.

func TestOnExit_RunsRegisteredHooksInOrder(t *testing.T) {
	var got []string
	cancelA := OnExit(func() { got = append(got, "a") })
	cancelB := OnExit(func() { got = append(got, "b") })
	cancelC := OnExit(func() { got = append(got, "c") })
	t.Cleanup(func() {
		cancelA()
		cancelB()
		cancelC()
	})

	cancelB()
	cancelB()
	runExitHooks()

	if !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("hooks ran %q, want %q", got, []string{"a", "c"})
	}

	runExitHooks()
	if len(got) != 2 {
		t.Fatalf("hooks ran again: %q", got)
	}
}

func TestOnExit_CancelAfterRunIsSafe(t *testing.T) {
	ran := 0
	cancel := OnExit(func() { ran++ })
	runExitHooks()
	cancel()

	if ran != 1 {
		t.Fatalf("hook ran %d times, want 1", ran)
	}
}
