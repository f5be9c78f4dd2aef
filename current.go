package reactor

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// The executor installs its reactor handle for the dynamic extent of a
// task's poll. Go has no thread-local storage, and a scoped value must
// follow the executing goroutine rather than the OS thread, so the slot is
// keyed by goroutine id.
var (
	currentMu sync.RWMutex
	current   = make(map[uint64]Handle)
)

// WithDefault installs h as the calling goroutine's current handle for the
// duration of scope. Registrations constructed without an explicit handle
// resolve it through Current at first poll. The slot is cleared on every
// exit path, including a panicking scope. Nesting is an invariant
// violation: installing while a current handle is already set panics.
func WithDefault(h Handle, scope func()) {
	id := goroutineID()

	currentMu.Lock()
	if _, exists := current[id]; exists {
		currentMu.Unlock()
		panic("reactor: default handle already set for this goroutine")
	}
	current[id] = h
	currentMu.Unlock()

	defer func() {
		currentMu.Lock()
		delete(current, id)
		currentMu.Unlock()
	}()

	scope()
}

// currentHandle returns the goroutine's scoped handle, if one is set.
func currentHandle() (Handle, bool) {
	currentMu.RLock()
	h, ok := current[goroutineID()]
	currentMu.RUnlock()
	return h, ok
}

// goroutineID parses the goroutine id out of the runtime.Stack header
// ("goroutine N [running]:"). The runtime offers no supported accessor;
// the header format has been stable across every Go release this module
// supports.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
