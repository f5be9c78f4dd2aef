package sched

import (
	"sync/atomic"

	"github.com/ehrlich-b/go-reactor/internal/poll"
)

// ScheduledIO is the per-source slot held in the reactor's slab: the
// OR-accumulated readiness word plus one waker cell per direction.
//
// Readiness only ever grows between observations by a waiter; a waiter
// clears exactly the bits it has consumed. The zero value is ready to use.
type ScheduledIO struct {
	readiness atomic.Uintptr
	Reader    AtomicWaker
	Writer    AtomicWaker
}

// Readiness returns the current accumulated readiness.
func (s *ScheduledIO) Readiness() poll.Ready {
	return poll.Ready(s.readiness.Load())
}

// SetReadiness ORs bits into the readiness word.
func (s *ScheduledIO) SetReadiness(bits poll.Ready) {
	for {
		old := s.readiness.Load()
		if s.readiness.CompareAndSwap(old, old|uintptr(bits)) {
			return
		}
	}
}

// ClearReadiness removes the bits in mask from the readiness word.
func (s *ScheduledIO) ClearReadiness(mask poll.Ready) {
	for {
		old := s.readiness.Load()
		if s.readiness.CompareAndSwap(old, old&^uintptr(mask)) {
			return
		}
	}
}

// WakeAll fires both direction wakers. Used during reactor teardown so
// every waiter observes the defunct state instead of hanging.
func (s *ScheduledIO) WakeAll() {
	s.Reader.Wake()
	s.Writer.Wake()
}
