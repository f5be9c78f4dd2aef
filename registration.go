package reactor

import (
	"sync"
)

type regState int

const (
	regUnregistered regState = iota
	regRegistered
	regDead
)

// Registration ties one OS resource (a file descriptor in nonblocking
// mode) to the reactor. It starts unregistered; the first PollReadiness
// inserts a slot and registers the descriptor with the selector,
// edge-triggered, interested in every readiness kind. Close removes the
// slot and deregisters the descriptor.
//
// The readiness stream is edge-triggered: after the underlying syscall
// reports EWOULDBLOCK, the consumer must call ClearReadiness for the
// consumed bits before polling again, or it will spin on stale readiness.
type Registration struct {
	fd int

	mu       sync.Mutex
	handle   Handle
	explicit bool // handle supplied at construction
	state    regState
	key      int
}

// NewRegistration creates an unregistered registration for fd. The reactor
// is resolved through Current at first poll, so construction is safe
// before any executor scope is entered.
func NewRegistration(fd int) *Registration {
	return &Registration{fd: fd, key: -1}
}

// NewRegistrationWithHandle creates an unregistered registration bound to
// an explicit reactor handle.
func NewRegistrationWithHandle(fd int, h Handle) *Registration {
	return &Registration{fd: fd, handle: h, explicit: true, key: -1}
}

// ensureRegistered performs the lazy first-use transition. It returns the
// live shared state and slab key, or an error when the registration is
// closed, the handle is defunct, or the selector refuses the descriptor.
func (r *Registration) ensureRegistered() (*inner, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case regDead:
		return nil, 0, NewError("poll", ErrCodeRegistrationClosed, "registration closed")
	case regRegistered:
		in := r.handle.upgrade()
		if in == nil {
			return nil, 0, NewError("poll", ErrCodeDefunctHandle, "reactor gone")
		}
		return in, r.key, nil
	}

	if !r.explicit {
		r.handle = Current()
	}
	in := r.handle.upgrade()
	if in == nil {
		return nil, 0, NewError("register", ErrCodeDefunctHandle, "no reactor available")
	}

	key, err := in.addSource(r.fd)
	if err != nil {
		return nil, 0, err
	}
	r.key = key
	r.state = regRegistered
	return in, key, nil
}

// PollReadiness reads the accumulated readiness for the direction. When
// relevant bits are set they are returned and w is not consulted.
// Otherwise w (if non-nil) is armed as the direction's waker; readiness is
// re-read after the arm, so bits that raced in are delivered by an
// immediate wake rather than lost. A zero return means "not ready, waker
// armed".
func (r *Registration) PollReadiness(dir Direction, w Waker) (Ready, error) {
	in, key, err := r.ensureRegistered()
	if err != nil {
		return 0, err
	}

	if ready := in.readiness(key) & dir.mask(); !ready.IsEmpty() {
		return ready, nil
	}
	if w != nil {
		in.registerInterest(key, dir, w)
	}
	return 0, nil
}

// ClearReadiness removes mask bits from the accumulated readiness. Called
// after the underlying resource reports EWOULDBLOCK so the next readiness
// transition is waited for rather than replayed. Clearing an unregistered
// or defunct registration is a no-op.
func (r *Registration) ClearReadiness(mask Ready) error {
	r.mu.Lock()
	state, key := r.state, r.key
	in := r.handle.upgrade()
	r.mu.Unlock()

	if state != regRegistered || in == nil {
		return nil
	}
	in.clearReadiness(key, mask)
	return nil
}

// Deregister removes the descriptor from the selector without releasing
// the slot, for callers that need the OS registration gone before the
// Registration itself is closed.
func (r *Registration) Deregister() error {
	r.mu.Lock()
	state := r.state
	in := r.handle.upgrade()
	r.mu.Unlock()

	if state != regRegistered || in == nil {
		return nil
	}
	return in.deregisterSource(r.fd)
}

// Close drops the registration: the slot is removed (events for its former
// token are silently ignored from then on) and the descriptor is
// deregistered from the selector. Tolerates a reactor that is already
// gone. Safe to call more than once.
func (r *Registration) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != regRegistered {
		r.state = regDead
		return nil
	}
	r.state = regDead

	in := r.handle.upgrade()
	if in == nil {
		return nil
	}
	in.dropSource(r.key)
	if err := in.deregisterSource(r.fd); err != nil {
		// The descriptor may already be closed; deregistration is best
		// effort on teardown.
		in.logger.Debug("deregister on close failed", "fd", r.fd, "error", err)
	}
	return nil
}
