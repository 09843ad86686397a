package process

import (
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
)

type exitHook struct {
	id uint64
	fn func()
}

var exitHooks struct {
	mu        sync.Mutex
	installed bool
	nextID    uint64
	hooks     []exitHook
}

// OnExit registers fn to run when the process receives SIGINT or SIGTERM.
// After the hooks have run, default signal handling is restored and the
// signal is re-delivered so the process terminates as it would have.
//
// The returned cancel removes the hook; it is safe to call more than once.
// Hooks run at most once.
func OnExit(fn func()) (cancel func()) {
	exitHooks.mu.Lock()
	defer exitHooks.mu.Unlock()

	if !exitHooks.installed {
		exitHooks.installed = true
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-ch
			runExitHooks()
			signal.Reset(os.Interrupt, syscall.SIGTERM)
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		}()
	}

	exitHooks.nextID++
	id := exitHooks.nextID
	exitHooks.hooks = append(exitHooks.hooks, exitHook{id: id, fn: fn})

	return func() {
		exitHooks.mu.Lock()
		defer exitHooks.mu.Unlock()
		exitHooks.hooks = slices.DeleteFunc(exitHooks.hooks, func(h exitHook) bool {
			return h.id == id
		})
	}
}

// runExitHooks runs registered hooks in registration order and clears them.
func runExitHooks() {
	exitHooks.mu.Lock()
	hooks := exitHooks.hooks
	exitHooks.hooks = nil
	exitHooks.mu.Unlock()

	for _, h := range hooks {
		h.fn()
	}
}
