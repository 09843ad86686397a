package lazy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle stage of a Value.
type State int32

const (
	StateUninitialized State = iota
	StateInProgress
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInProgress:
		return "in progress"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Func computes the value of a slot. The context carries the values of the
// first caller's context but is never canceled.
type Func[T any] func(ctx context.Context) (T, error)

// Value holds a deferred computation that runs exactly once, on the first
// Get. Every caller of Get observes the same result; the close of an
// internal channel orders the write of the result before every read.
type Value[T any] struct {
	fn    Func[T]
	once  sync.Once
	done  chan struct{}
	state atomic.Int32

	val T
	err error
}

// New returns an uninitialized Value that will run fn on first use.
// Panics if fn is nil.
func New[T any](fn Func[T]) *Value[T] {
	if fn == nil {
		panic("ravenembed: lazy value function must not be nil")
	}
	return &Value[T]{fn: fn, done: make(chan struct{})}
}

// Start launches the computation if nobody has yet and returns without
// waiting. Once Start returns, Started reports true and Wait blocks until
// the result is available.
func (v *Value[T]) Start(ctx context.Context) {
	v.once.Do(func() {
		v.state.Store(int32(StateInProgress))
		go v.evaluate(context.WithoutCancel(ctx))
	})
}

// Get starts the computation if nobody has yet and waits for its result.
//
// If ctx ends before the computation finishes, Get returns ctx.Err() and the
// computation keeps running; a later Get receives its result.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.Start(ctx)

	select {
	case <-v.done:
		return v.val, v.err
	default:
	}

	select {
	case <-v.done:
		return v.val, v.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (v *Value[T]) evaluate(ctx context.Context) {
	defer close(v.done)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v.val = zero
			v.err = fmt.Errorf("lazy value panicked: %v", r)
			v.state.Store(int32(StateFailed))
		}
	}()

	val, err := v.fn(ctx)
	if err != nil {
		v.err = err
		v.state.Store(int32(StateFailed))
		return
	}
	v.val = val
	v.state.Store(int32(StateReady))
}

// State reports the current lifecycle stage.
func (v *Value[T]) State() State {
	return State(v.state.Load())
}

// Started reports whether Get has ever been called.
func (v *Value[T]) Started() bool {
	return v.State() != StateUninitialized
}

// Materialized reports whether the computation has finished, successfully
// or not.
func (v *Value[T]) Materialized() bool {
	select {
	case <-v.done:
		return true
	default:
		return false
	}
}

// Peek returns the result without starting or waiting for the computation.
// ok is false until the computation has finished.
func (v *Value[T]) Peek() (val T, ok bool, err error) {
	if !v.Materialized() {
		return val, false, nil
	}
	return v.val, true, v.err
}

// Wait blocks until a computation that has been started finishes or ctx
// ends. It does not start the computation.
func (v *Value[T]) Wait(ctx context.Context) error {
	if !v.Started() {
		return nil
	}
	select {
	case <-v.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
