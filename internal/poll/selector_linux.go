//go:build linux

package poll

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// epollSelector implements Selector over epoll(7).
//
// The event buffer is preallocated once; Select translates into it and back
// out without per-call allocation.
type epollSelector struct {
	epfd   int
	closed atomic.Bool
	buf    []unix.EpollEvent
}

// NewSelector creates the platform-default selector.
func NewSelector() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollSelector{
		epfd: epfd,
		buf:  make([]unix.EpollEvent, 1024),
	}, nil
}

func (s *epollSelector) Register(fd int, tok Token, interest Interest, opt Opt) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	ev := unix.EpollEvent{Events: epollMask(interest, opt)}
	packToken(&ev, tok)
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (s *epollSelector) Reregister(fd int, tok Token, interest Interest, opt Opt) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	ev := unix.EpollEvent{Events: epollMask(interest, opt)}
	packToken(&ev, tok)
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (s *epollSelector) Deregister(fd int) error {
	if s.closed.Load() {
		return ErrSelectorClosed
	}
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (s *epollSelector) Select(events []Event, timeout time.Duration) (int, error) {
	if s.closed.Load() {
		return 0, ErrSelectorClosed
	}
	buf := s.buf
	if len(events) < len(buf) {
		buf = buf[:len(events)]
	}

	n, err := unix.EpollWait(s.epfd, buf, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			// Interrupted waits count as an empty, successful poll.
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		events[i] = Event{
			Token: unpackToken(&buf[i]),
			Ready: readyFromEpoll(buf[i].Events),
		}
	}
	return n, nil
}

func (s *epollSelector) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.epfd)
}

// timeoutMillis converts a wait duration to epoll milliseconds. Negative
// means block indefinitely; sub-millisecond waits round up so a short
// timeout never degrades to a busy loop.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := int(d / time.Millisecond)
	if d%time.Millisecond != 0 {
		ms++
	}
	return ms
}

// epollMask builds the epoll event mask for an interest set. Hangup and
// error conditions are always reported by epoll; EPOLLRDHUP must be asked
// for explicitly to observe half-closed peers on the read side.
func epollMask(interest Interest, opt Opt) uint32 {
	var mask uint32
	if interest&InterestRead != 0 {
		mask |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&InterestWrite != 0 {
		mask |= unix.EPOLLOUT
	}
	if opt == Edge {
		mask |= unix.EPOLLET
	}
	return mask
}

// readyFromEpoll converts an epoll event mask to the platform-neutral set.
func readyFromEpoll(events uint32) Ready {
	var r Ready
	if events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		r |= EventRead
	}
	if events&unix.EPOLLOUT != 0 {
		r |= EventWrite
	}
	if events&unix.EPOLLERR != 0 {
		r |= EventError
	}
	if events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		r |= EventHangup
	}
	return r
}

// epollFromReady is the inverse of readyFromEpoll. Used by tests; AIO/LIO
// bits have no epoll representation.
func epollFromReady(r Ready) uint32 {
	var events uint32
	if r&EventRead != 0 {
		events |= unix.EPOLLIN
	}
	if r&EventWrite != 0 {
		events |= unix.EPOLLOUT
	}
	if r&EventError != 0 {
		events |= unix.EPOLLERR
	}
	if r&EventHangup != 0 {
		events |= unix.EPOLLHUP
	}
	return events
}

// packToken stores a token in the epoll user-data area. EpollEvent exposes
// the kernel's 64-bit data union as two int32 fields, so the token is split
// across both to keep the full word.
func packToken(ev *unix.EpollEvent, tok Token) {
	ev.Fd = int32(uint32(uint64(tok)))
	ev.Pad = int32(uint32(uint64(tok) >> 32))
}

func unpackToken(ev *unix.EpollEvent) Token {
	return Token(uint64(uint32(ev.Fd)) | uint64(uint32(ev.Pad))<<32)
}
