//go:build !linux

package poll

// NewSelector is available on Linux only.
func NewSelector() (Selector, error) {
	return nil, ErrNotSupported
}
