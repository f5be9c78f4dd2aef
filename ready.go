package reactor

import (
	"github.com/ehrlich-b/go-reactor/internal/poll"
	"github.com/ehrlich-b/go-reactor/internal/sched"
)

// Ready is the readiness bitset reported for a registered source.
type Ready = poll.Ready

// Re-export readiness bits for the public API
const (
	EventRead   = poll.EventRead
	EventWrite  = poll.EventWrite
	EventError  = poll.EventError
	EventHangup = poll.EventHangup
	EventAio    = poll.EventAio
	EventLio    = poll.EventLio
)

// Waker wakes a task waiting on readiness. See sched.AtomicWaker for the
// delivery contract: a registered waker fires at most once, and arming
// again supersedes any previous waker.
type Waker = sched.Waker

// WakerFunc adapts a function to the Waker interface.
type WakerFunc = sched.WakerFunc

// Direction selects which side of a source a waiter is interested in.
type Direction int

const (
	// Read waits for read-side readiness.
	Read Direction = iota
	// Write waits for write-side readiness.
	Write
)

// mask returns the readiness bits that satisfy the direction. Hangup and
// error conditions must wake readers, so Read covers every bit except
// plain writability.
func (d Direction) mask() Ready {
	if d == Write {
		return EventWrite
	}
	return EventRead | EventError | EventHangup | EventAio | EventLio
}

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}
