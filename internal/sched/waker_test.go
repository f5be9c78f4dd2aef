package sched

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWakeDeliversOnce(t *testing.T) {
	var a AtomicWaker
	var calls atomic.Int32

	a.Register(WakerFunc(func() { calls.Add(1) }))
	a.Wake()
	a.Wake() // cell is empty now

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 wake, got %d", got)
	}
}

func TestWakeEmptyIsNoOp(t *testing.T) {
	var a AtomicWaker
	a.Wake() // must not panic
	if !a.IsEmpty() {
		t.Fatal("expected empty cell")
	}
}

func TestRegisterSupersedes(t *testing.T) {
	var a AtomicWaker
	var first, second atomic.Int32

	a.Register(WakerFunc(func() { first.Add(1) }))
	a.Register(WakerFunc(func() { second.Add(1) }))
	a.Wake()

	if first.Load() != 0 {
		t.Fatal("superseded waker fired")
	}
	if second.Load() != 1 {
		t.Fatal("current waker did not fire")
	}
}

func TestRegisterNilClears(t *testing.T) {
	var a AtomicWaker
	var calls atomic.Int32

	a.Register(WakerFunc(func() { calls.Add(1) }))
	a.Register(nil)
	a.Wake()

	if calls.Load() != 0 {
		t.Fatal("cleared waker fired")
	}
}

func TestConcurrentRegisterAndWake(t *testing.T) {
	var a AtomicWaker
	var calls atomic.Int32
	w := WakerFunc(func() { calls.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				a.Register(w)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				a.Wake()
			}
		}()
	}
	wg.Wait()

	// Smoke test: no panics or races; at least some wakes landed.
	if calls.Load() == 0 {
		t.Fatal("no wake ever delivered")
	}
}
