// Package reactor is the runtime bridge between the operating system's
// readiness-notification facility and lightweight tasks waiting on I/O.
//
// A Reactor owns the OS selector and drives it one Turn at a time. Handles
// are weak, shareable references to a reactor used to set registrations up
// and to wake a parked turn. A Registration ties one OS resource to the
// task(s) awaiting its readiness: it lazily registers on first poll,
// accumulates edge-triggered readiness, and deregisters when closed.
//
// Most callers never name a reactor explicitly: registrations constructed
// without a handle resolve one at first poll, preferring the goroutine's
// scoped default (see WithDefault) and falling back to a lazily-started
// process-wide reactor.
package reactor

import (
	"time"

	"github.com/ehrlich-b/go-reactor/internal/constants"
	"github.com/ehrlich-b/go-reactor/internal/logging"
	"github.com/ehrlich-b/go-reactor/internal/poll"
	"github.com/ehrlich-b/go-reactor/internal/sched"
	"github.com/ehrlich-b/go-reactor/internal/slab"
)

// Turn is the result of a single reactor iteration. It currently carries
// nothing the caller can act on; it exists so the turn API has room to
// report telemetry later.
type Turn struct {
	events int
}

// Config carries optional reactor settings.
type Config struct {
	// Observer receives turn and registration telemetry. Nil disables it.
	Observer Observer

	// Logger overrides the process-default logger.
	Logger *logging.Logger

	// EventCapacity sizes the reusable selector event buffer.
	// Defaults to DefaultEventCapacity.
	EventCapacity int
}

// Reactor is the event loop. Exactly one goroutine at a time may call
// Turn; any number of goroutines may hold Handles, build Registrations,
// and poll readiness concurrently.
type Reactor struct {
	// events is reused across turns to avoid per-turn allocation.
	events []poll.Event
	inner  *inner
}

// New creates a reactor with default settings.
func New() (*Reactor, error) {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a reactor. It fails when the selector or the
// wakeup eventfd cannot be created; the wakeup is registered at the
// reserved token with readable interest and level-triggered delivery.
func NewWithConfig(cfg Config) (*Reactor, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	sel, err := poll.NewSelector()
	if err != nil {
		return nil, WrapError("new", err)
	}

	wakeup, err := poll.NewWakeup()
	if err != nil {
		sel.Close()
		return nil, WrapError("new", err)
	}

	if err := sel.Register(wakeup.Fd(), tokenWakeup, poll.InterestRead, poll.Level); err != nil {
		wakeup.Close()
		sel.Close()
		return nil, WrapError("new", err)
	}

	capacity := cfg.EventCapacity
	if capacity <= 0 {
		capacity = constants.DefaultEventCapacity
	}

	return &Reactor{
		events: make([]poll.Event, capacity),
		inner: &inner{
			io:       sel,
			wakeup:   wakeup,
			sources:  slab.New[sched.ScheduledIO](constants.MaxSources),
			logger:   logger,
			observer: cfg.Observer,
		},
	}, nil
}

// Handle returns a weak reference to this reactor. Handles never keep the
// reactor alive: once Close runs, every handle becomes defunct.
func (r *Reactor) Handle() Handle {
	return Handle{inner: r.inner}
}

// Turn performs one iteration of the event loop: a single selector call
// bounded by timeout, then dispatch of whatever arrived. A negative
// timeout blocks until at least one event (or an Unpark) arrives.
// Interrupted selector waits count as an empty, successful turn.
func (r *Reactor) Turn(timeout time.Duration) (Turn, error) {
	var start time.Time
	if r.inner.observer != nil {
		start = time.Now()
	}

	n, err := r.inner.io.Select(r.events, timeout)
	if err != nil {
		return Turn{}, WrapError("turn", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		ev := r.events[i]
		if ev.Token == tokenWakeup {
			// Level-triggered: drain the eventfd so the next Set is
			// observed as a fresh readiness transition.
			if err := r.inner.wakeup.Clear(); err != nil {
				r.inner.logger.Warn("wakeup drain failed", "error", err)
			}
			if r.inner.observer != nil {
				r.inner.observer.ObserveWakeup()
			}
			continue
		}
		r.inner.dispatch(ev)
		dispatched++
	}

	if r.inner.observer != nil {
		r.inner.observer.ObserveTurn(dispatched, uint64(time.Since(start).Nanoseconds()))
	}
	return Turn{events: dispatched}, nil
}

// IsIdle reports whether no sources are currently registered. This uses
// slab occupancy as a proxy for "no tasks", which is only accurate when
// every task transitively holds a registration.
func (r *Reactor) IsIdle() bool {
	r.inner.mu.RLock()
	defer r.inner.mu.RUnlock()
	return r.inner.sources.Len() == 0
}

// Close drops the reactor: every pending waiter is woken so it can observe
// the defunct state, all handles stop upgrading, and the selector and
// wakeup descriptors are released. Safe to call more than once.
func (r *Reactor) Close() error {
	r.inner.close()
	return nil
}
