//go:build !uring || !linux

package poll

import "fmt"

// NewUringSelector is available when built with -tags uring on Linux.
func NewUringSelector(entries uint32) (Selector, error) {
	return nil, fmt.Errorf("uring selector not enabled; build with -tags uring")
}
