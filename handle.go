package reactor

import (
	"sync/atomic"
)

// Handle is a weak, shareable reference to a reactor. The zero value is a
// defunct handle: operations through it are no-ops or fail with
// ErrCodeDefunctHandle. Handles are cheap to copy and safe for concurrent
// use from any goroutine.
type Handle struct {
	inner *inner
}

// upgrade returns the shared state, or nil once the reactor is gone.
// The strong reference belongs exclusively to the Reactor; a handle only
// borrows while the reactor has not been closed.
func (h Handle) upgrade() *inner {
	if h.inner == nil || h.inner.closed.Load() {
		return nil
	}
	return h.inner
}

// Unpark wakes the reactor out of a blocking Turn by setting the wakeup
// readiness. Harmless on a defunct handle.
func (h Handle) Unpark() {
	in := h.upgrade()
	if in == nil {
		return
	}
	if err := in.wakeup.Set(); err != nil {
		in.logger.Warn("unpark failed", "error", err)
	}
}

// fallback is the process-wide fallback reactor handle. It is installed at
// most once and never cleared afterwards.
var fallback atomic.Pointer[Handle]

// SetFallback attempts to install this reactor's handle as the process-wide
// fallback used by Current when no scoped handle is set. Exactly one
// install succeeds for the life of the process; later calls fail with
// ErrCodeFallbackAlreadySet and the caller may keep using the existing
// fallback.
func (r *Reactor) SetFallback() error {
	h := r.Handle()
	if fallback.CompareAndSwap(nil, &h) {
		return nil
	}
	return NewError("set_fallback", ErrCodeFallbackAlreadySet, "fallback reactor already set")
}

// fallbackHandle returns the fallback reactor's handle, starting one on
// first need. The started reactor is driven by a goroutine that runs for
// the remaining life of the process. Losing an install race closes the
// redundant reactor and adopts the winner.
func fallbackHandle() Handle {
	for {
		if p := fallback.Load(); p != nil {
			return *p
		}

		r, err := New()
		if err != nil {
			// No reactor can be built; hand out a defunct handle so the
			// caller observes the failure at registration time.
			return Handle{}
		}
		if r.SetFallback() != nil {
			r.Close()
			continue
		}

		go func() {
			for {
				if _, err := r.Turn(-1); err != nil {
					r.inner.logger.Error("fallback reactor stopped", "error", err)
					return
				}
			}
		}()
		return r.Handle()
	}
}

// Current returns the handle for the current execution context: the
// goroutine-scoped default installed by WithDefault when present,
// otherwise the process-wide fallback (started lazily on first use).
func Current() Handle {
	if h, ok := currentHandle(); ok {
		return h
	}
	return fallbackHandle()
}
