package sched

import (
	"sync/atomic"
	"testing"

	"github.com/ehrlich-b/go-reactor/internal/poll"
)

func TestReadinessAccumulates(t *testing.T) {
	var s ScheduledIO

	if !s.Readiness().IsEmpty() {
		t.Fatal("fresh slot not empty")
	}

	s.SetReadiness(poll.EventRead)
	s.SetReadiness(poll.EventHangup)

	r := s.Readiness()
	if !r.Contains(poll.EventRead | poll.EventHangup) {
		t.Fatalf("bits lost: %v", r)
	}
}

func TestClearReadinessIsSelective(t *testing.T) {
	var s ScheduledIO
	s.SetReadiness(poll.EventRead | poll.EventHangup | poll.EventWrite)

	s.ClearReadiness(poll.EventRead)

	r := s.Readiness()
	if r.Intersects(poll.EventRead) {
		t.Fatalf("cleared bit still set: %v", r)
	}
	if !r.Contains(poll.EventHangup | poll.EventWrite) {
		t.Fatalf("unrelated bits cleared: %v", r)
	}
}

func TestWakeAllFiresBothDirections(t *testing.T) {
	var s ScheduledIO
	var reads, writes atomic.Int32

	s.Reader.Register(WakerFunc(func() { reads.Add(1) }))
	s.Writer.Register(WakerFunc(func() { writes.Add(1) }))

	s.WakeAll()
	s.WakeAll() // cells consumed; second call is a no-op

	if reads.Load() != 1 || writes.Load() != 1 {
		t.Fatalf("expected exactly one wake per direction, got r=%d w=%d",
			reads.Load(), writes.Load())
	}
}
