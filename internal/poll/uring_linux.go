//go:build uring && linux

package poll

import (
	"sync"
	"time"

	"github.com/pawelgaczynski/giouring"
	"golang.org/x/sys/unix"
)

// tokenTimeout marks the CQE of the internal timeout operation used to
// bound a blocking Select. Distinct from any source token: source tokens
// are shifted up by one bit before being stored as user data.
const tokenTimeout uint64 = 1

// uringSelector is an experimental Selector over io_uring multishot poll.
// A standing poll request per source keeps readiness flowing without
// re-arming submissions on every event. Delivery is closer to
// level-triggered than epoll's EPOLLET; the reactor's OR-accumulated
// readiness model tolerates the duplicate notifications.
type uringSelector struct {
	mu     sync.Mutex
	ring   *giouring.Ring
	closed bool
	// timeoutSpec backs the in-flight timeout SQE; it must stay reachable
	// until the kernel consumes it.
	timeoutSpec unix.Timespec
}

// NewUringSelector creates the io_uring-backed selector.
func NewUringSelector(entries uint32) (Selector, error) {
	ring, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, err
	}
	return &uringSelector{ring: ring}, nil
}

// userData encodes a source token so it can never collide with the
// internal timeout marker or the zero value used for removal operations.
func userData(tok Token) uint64 { return (uint64(tok) + 1) << 1 }

func tokenFromUserData(ud uint64) Token { return Token(ud>>1 - 1) }

func (s *uringSelector) Register(fd int, tok Token, interest Interest, _ Opt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSelectorClosed
	}
	sqe := s.ring.GetSQE()
	if sqe == nil {
		return ErrSelectorClosed
	}
	sqe.PreparePollMultishot(fd, interestPollMask(interest))
	sqe.UserData = userData(tok)
	_, err := s.ring.Submit()
	return err
}

func (s *uringSelector) Reregister(fd int, tok Token, interest Interest, opt Opt) error {
	if err := s.removePoll(tok); err != nil {
		return err
	}
	return s.Register(fd, tok, interest, opt)
}

func (s *uringSelector) Deregister(fd int) error {
	// Multishot polls are keyed by user data, not fd; the reactor always
	// reregisters or drops by token, and stale CQEs for removed sources
	// are discarded at dispatch. Nothing to do here.
	return nil
}

func (s *uringSelector) removePoll(tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSelectorClosed
	}
	sqe := s.ring.GetSQE()
	if sqe == nil {
		return ErrSelectorClosed
	}
	sqe.PreparePollRemove(userData(tok))
	sqe.UserData = 0
	_, err := s.ring.Submit()
	return err
}

func (s *uringSelector) Select(events []Event, timeout time.Duration) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSelectorClosed
	}
	if timeout >= 0 {
		// Bound the wait with an internal timeout operation.
		s.timeoutSpec = unix.NsecToTimespec(timeout.Nanoseconds())
		if sqe := s.ring.GetSQE(); sqe != nil {
			sqe.PrepareTimeout(&s.timeoutSpec, 1, 0)
			sqe.UserData = tokenTimeout
		}
	}
	_, err := s.ring.SubmitAndWait(1)
	s.mu.Unlock()
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	cqes := make([]*giouring.CompletionQueueEvent, len(events))
	n := int(s.ring.PeekBatchCQE(cqes))
	filled := 0
	for i := 0; i < n; i++ {
		cqe := cqes[i]
		if cqe.UserData == tokenTimeout || cqe.UserData == 0 || cqe.Res < 0 {
			continue
		}
		events[filled] = Event{
			Token: tokenFromUserData(cqe.UserData),
			Ready: readyFromEpoll(uint32(cqe.Res)),
		}
		filled++
	}
	s.ring.CQAdvance(uint32(n))
	return filled, nil
}

func (s *uringSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.ring.QueueExit()
	return nil
}

// interestPollMask maps an interest set to the poll(2) mask io_uring takes.
func interestPollMask(interest Interest) uint32 {
	var mask uint32
	if interest&InterestRead != 0 {
		mask |= unix.POLLIN | unix.POLLRDHUP
	}
	if interest&InterestWrite != 0 {
		mask |= unix.POLLOUT
	}
	return mask
}
