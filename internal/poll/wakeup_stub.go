//go:build !linux

package poll

// Wakeup is available on Linux only.
type Wakeup struct{}

func NewWakeup() (*Wakeup, error) { return nil, ErrNotSupported }

func (w *Wakeup) Fd() int      { return -1 }
func (w *Wakeup) Set() error   { return ErrNotSupported }
func (w *Wakeup) Clear() error { return ErrNotSupported }
func (w *Wakeup) Close() error { return nil }
