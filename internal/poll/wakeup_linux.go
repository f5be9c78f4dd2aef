//go:build linux

package poll

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Wakeup is a self-signalling readiness source built on eventfd(2). The
// owning reactor registers the read side at its reserved wakeup token with
// level-triggered delivery; any thread may call Set to make it readable.
type Wakeup struct {
	fd int
}

// NewWakeup creates the eventfd pair.
func NewWakeup() (*Wakeup, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &Wakeup{fd: fd}, nil
}

// Fd returns the descriptor to register with the selector.
func (w *Wakeup) Fd() int { return w.fd }

// Set makes the wakeup readable. Safe to call from any goroutine, any
// number of times; coalesced signals deliver a single readiness event.
func (w *Wakeup) Set() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(w.fd, buf[:])
	if err == unix.EAGAIN {
		// Counter saturated; the wakeup is already pending.
		return nil
	}
	return err
}

// Clear drains the eventfd counter, re-arming level-triggered delivery.
func (w *Wakeup) Clear() error {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err == unix.EAGAIN {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
	}
}

// Close releases the eventfd.
func (w *Wakeup) Close() error {
	if w.fd < 0 {
		return nil
	}
	err := unix.Close(w.fd)
	w.fd = -1
	return err
}
