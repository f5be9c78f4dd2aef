package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/ehrlich-b/go-reactor/internal/logging"
	"github.com/ehrlich-b/go-reactor/internal/poll"
	"github.com/ehrlich-b/go-reactor/internal/sched"
	"github.com/ehrlich-b/go-reactor/internal/slab"
)

// Selector token layout: token 0 is reserved for the reactor's own wakeup
// eventfd; source tokens start at 1 and are slab key + tokenStart.
const (
	tokenWakeup poll.Token = 0
	tokenStart  poll.Token = 1
)

// inner is the state shared between a reactor and its handles. The reactor
// holds the only strong reference; handles observe it through upgrade,
// which fails once the reactor has been closed.
type inner struct {
	io     poll.Selector
	wakeup *poll.Wakeup

	// mu guards the sources slab. Dispatch and interest registration take
	// it shared; insert and remove take it exclusive and are short.
	mu      sync.RWMutex
	sources *slab.Slab[sched.ScheduledIO]

	closed   atomic.Bool
	logger   *logging.Logger
	observer Observer
}

// addSource inserts a fresh slot and registers fd with the selector under
// the slot's token, edge-triggered, with interest in every readiness kind.
// Registration happens after the insert so an event arriving immediately
// can find the slot; on registration failure the slot is rolled back.
func (in *inner) addSource(fd int) (int, error) {
	in.mu.Lock()
	key, ok := in.sources.Insert(sched.ScheduledIO{})
	in.mu.Unlock()
	if !ok {
		return 0, NewError("register", ErrCodeCapacityExceeded, "source limit reached")
	}

	tok := tokenStart + poll.Token(key)
	if err := in.io.Register(fd, tok, poll.InterestAll, poll.Edge); err != nil {
		in.mu.Lock()
		in.sources.Remove(key)
		in.mu.Unlock()
		in.logger.Error("source registration failed", "fd", fd, "token", tok, "error", err)
		return 0, &Error{Op: "register", Token: int(tok), Code: ErrCodeRegistrationFailed, Msg: err.Error(), Inner: err}
	}

	if in.observer != nil {
		in.observer.ObserveRegister()
	}
	in.logger.Debug("registered source", "fd", fd, "token", tok)
	return key, nil
}

// deregisterSource removes fd from the selector. The slab is untouched.
func (in *inner) deregisterSource(fd int) error {
	if err := in.io.Deregister(fd); err != nil {
		return WrapError("deregister", err)
	}
	if in.observer != nil {
		in.observer.ObserveDeregister()
	}
	return nil
}

// dropSource removes the slot. Dispatch for its token becomes a no-op.
func (in *inner) dropSource(key int) {
	in.mu.Lock()
	in.sources.Remove(key)
	in.mu.Unlock()
	in.logger.Debug("dropped source", "token", tokenStart+poll.Token(key))
}

// registerInterest arms the direction's waker and then re-reads readiness,
// waking the just-stored waker itself if relevant bits are already set.
// The recheck closes the race where dispatch ORed bits in and found the
// waker cell empty just before the caller stored into it.
func (in *inner) registerInterest(key int, dir Direction, w Waker) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	sio := in.sources.Get(key)
	if sio == nil {
		return
	}

	cell := &sio.Reader
	if dir == Write {
		cell = &sio.Writer
	}
	cell.Register(w)

	if sio.Readiness().Intersects(dir.mask()) {
		cell.Wake()
	}
}

// readiness returns the slot's accumulated readiness, or 0 for a dropped
// slot.
func (in *inner) readiness(key int) Ready {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if sio := in.sources.Get(key); sio != nil {
		return sio.Readiness()
	}
	return 0
}

// clearReadiness removes mask bits from the slot's readiness.
func (in *inner) clearReadiness(key int, mask Ready) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if sio := in.sources.Get(key); sio != nil {
		sio.ClearReadiness(mask)
	}
}

// dispatch routes one selector event to its slot. Writability wakes the
// writer; anything else (read, hangup, error) wakes the reader. Events for
// tokens whose slot is gone are dropped: the registration may have been
// closed while the event was in flight.
func (in *inner) dispatch(ev poll.Event) {
	key := int(ev.Token - tokenStart)

	in.mu.RLock()
	defer in.mu.RUnlock()

	sio := in.sources.Get(key)
	if sio == nil {
		if in.observer != nil {
			in.observer.ObserveDroppedEvent()
		}
		return
	}

	sio.SetReadiness(ev.Ready)
	if ev.Ready.Intersects(EventWrite) {
		sio.Writer.Wake()
	}
	if ev.Ready.Intersects(^EventWrite) {
		sio.Reader.Wake()
	}
}

// close tears the shared state down: handles stop upgrading, every stored
// waker fires so waiters observe the defunct reactor, and the OS resources
// are released. Idempotent.
func (in *inner) close() {
	if in.closed.Swap(true) {
		return
	}

	in.mu.Lock()
	in.sources.Range(func(_ int, sio *sched.ScheduledIO) bool {
		sio.WakeAll()
		return true
	})
	in.mu.Unlock()

	if err := in.wakeup.Close(); err != nil {
		in.logger.Warn("wakeup close failed", "error", err)
	}
	if err := in.io.Close(); err != nil {
		in.logger.Warn("selector close failed", "error", err)
	}
	in.logger.Debug("reactor closed")
}
