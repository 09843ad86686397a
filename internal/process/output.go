package process

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// EventKind tags the values published by an OutputReader.
type EventKind int

const (
	// EventLine carries one line of output in Event.Text.
	EventLine EventKind = iota
	// EventEndOfStream marks that the stream reached EOF or failed.
	EventEndOfStream
)

// Event is a single item read from a process stream.
type Event struct {
	Kind EventKind
	Text string
}

// StopReason reports why Collect returned.
type StopReason int

const (
	// ReasonSignaled means the signal predicate accepted a line.
	ReasonSignaled StopReason = iota + 1
	// ReasonEndOfStream means the stream ended before a signal line.
	ReasonEndOfStream
	// ReasonTimedOut means the deadline elapsed before a signal line.
	ReasonTimedOut
)

func (r StopReason) String() string {
	switch r {
	case ReasonSignaled:
		return "signaled"
	case ReasonEndOfStream:
		return "end of stream"
	case ReasonTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

const (
	// DefaultPollInterval is the sleep between non-blocking polls in Collect.
	DefaultPollInterval = 100 * time.Millisecond

	eventBuffer = 256
	maxLineSize = 1 << 20
)

// CollectConfig bounds a Collect call. The deadline is Started+MaxDuration
// and is re-checked on every poll.
type CollectConfig struct {
	Started      time.Time
	MaxDuration  time.Duration
	PollInterval time.Duration
}

// Result is what Collect observed.
type Result struct {
	// Output holds every line observed, in write order, whatever the reason.
	Output []string
	Reason StopReason
}

// Text joins the observed lines with newlines.
func (r Result) Text() string {
	return strings.Join(r.Output, "\n")
}

// OutputReader scans lines from a stream on one background goroutine and
// publishes them as Events for a single consumer. After Release the
// remaining lines go to the sink instead, so the child never blocks on a
// full pipe once nobody is polling.
type OutputReader struct {
	events      chan Event
	release     chan struct{}
	releaseOnce sync.Once
	done        chan struct{}
	sink        func(string)

	// handedOver is only touched by the reader goroutine.
	handedOver bool
}

// NewOutputReader starts reading r. sink receives lines after Release and
// may be nil to discard them.
func NewOutputReader(r io.Reader, sink func(string)) *OutputReader {
	o := &OutputReader{
		events:  make(chan Event, eventBuffer),
		release: make(chan struct{}),
		done:    make(chan struct{}),
		sink:    sink,
	}
	go o.run(r)
	return o
}

func (o *OutputReader) run(r io.Reader) {
	defer close(o.done)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		o.publish(Event{Kind: EventLine, Text: sc.Text()})
	}
	o.publish(Event{Kind: EventEndOfStream})
}

func (o *OutputReader) publish(ev Event) {
	if !o.handedOver {
		select {
		case <-o.release:
			o.handOver()
		default:
			select {
			case o.events <- ev:
				return
			case <-o.release:
				o.handOver()
			}
		}
	}
	if ev.Kind == EventLine && o.sink != nil {
		o.sink(ev.Text)
	}
}

// handOver moves lines still buffered for the consumer to the sink.
func (o *OutputReader) handOver() {
	o.handedOver = true
	for {
		select {
		case ev := <-o.events:
			if ev.Kind == EventLine && o.sink != nil {
				o.sink(ev.Text)
			}
		default:
			return
		}
	}
}

// Poll returns the next event without blocking.
func (o *OutputReader) Poll() (Event, bool) {
	select {
	case ev := <-o.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// Collect polls the reader until signal accepts a line, the stream ends or
// the deadline passes. Between polls it sleeps cfg.PollInterval. Every
// observed line is recorded in Result.Output.
//
// The returned error is non-nil only when ctx is canceled; the deadline is
// reported as ReasonTimedOut.
func (o *OutputReader) Collect(ctx context.Context, cfg CollectConfig, signal func(line string) bool) (Result, error) {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	started := cfg.Started
	if started.IsZero() {
		started = time.Now()
	}
	deadline := started.Add(cfg.MaxDuration)

	var res Result
	// The poll timeout leaves one extra interval so the condition, which owns
	// the deadline check, normally decides first.
	timeout := time.Until(deadline) + interval

	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true,
		func(context.Context) (bool, error) {
			for {
				ev, ok := o.Poll()
				if !ok {
					break
				}
				if ev.Kind == EventEndOfStream {
					res.Reason = ReasonEndOfStream
					return true, nil
				}
				res.Output = append(res.Output, ev.Text)
				if signal != nil && signal(ev.Text) {
					res.Reason = ReasonSignaled
					return true, nil
				}
			}
			if !time.Now().Before(deadline) {
				res.Reason = ReasonTimedOut
				return true, nil
			}
			return false, nil
		})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if wait.Interrupted(err) {
			res.Reason = ReasonTimedOut
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// Release stops publishing to the consumer. Buffered and future lines go to
// the sink. Release is safe to call more than once.
func (o *OutputReader) Release() {
	o.releaseOnce.Do(func() { close(o.release) })
}

// Done is closed when the reader goroutine has returned.
func (o *OutputReader) Done() <-chan struct{} {
	return o.done
}
