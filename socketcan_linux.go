//go:build linux

package canutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollInterval bounds how long a blocked Send/Receive waits before
// re-checking its context when the context has no deadline.
const pollInterval = 50 * time.Millisecond

// socketCAN implements Bus over a Linux SocketCAN raw socket.
type socketCAN struct {
	fd        int
	closeOnce sync.Once
	closed    chan struct{}
}

// DialSocketCAN opens a raw CAN socket bound to the given interface name
// (e.g., "can0"). When filters are given the kernel drops non-matching
// frames before they reach the socket; see kernelFilters.
func DialSocketCAN(iface string, filters ...MessageFilter) (Bus, error) {
	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canutil: socket: %w", err)
	}
	if len(filters) > 0 {
		if err := unix.SetsockoptCanRawFilter(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, kernelFilters(filters)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("canutil: set filters: %w", err)
		}
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netIf.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canutil: bind %s: %w", iface, err)
	}
	return &socketCAN{fd: fd, closed: make(chan struct{})}, nil
}

// kernelFilters converts message filters to CAN_RAW_FILTER entries. The
// kernel forwards a frame matching any entry, so ignore filters only make
// sense on their own.
func kernelFilters(filters []MessageFilter) []unix.CanFilter {
	out := make([]unix.CanFilter, 0, len(filters))
	for _, m := range filters {
		id := m.ID
		mask := uint32(canEffMask)
		if m.Mask != nil {
			mask = *m.Mask
		}
		if m.Type == MatchMeansIgnore {
			id |= unix.CAN_INV_FILTER
		}
		out = append(out, unix.CanFilter{Id: id, Mask: mask})
	}
	return out
}

func (s *socketCAN) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = unix.Close(s.fd)
	})
	return err
}

func (s *socketCAN) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Send writes one frame using the Linux can_frame binary layout.
func (s *socketCAN) Send(ctx context.Context, frame Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	for {
		if s.isClosed() {
			return ErrClosed
		}
		n, werr := unix.Write(s.fd, buf)
		if werr == nil {
			if n != len(buf) {
				return errors.New("canutil: short write")
			}
			return nil
		}
		if werr != unix.EAGAIN {
			return werr
		}
		if err := s.wait(ctx, unix.POLLOUT); err != nil {
			return err
		}
	}
}

// Receive reads one frame, blocking until one arrives or ctx is done.
func (s *socketCAN) Receive(ctx context.Context) (Frame, error) {
	buf := make([]byte, canFrameSize)
	for {
		if s.isClosed() {
			return Frame{}, ErrClosed
		}
		n, rerr := unix.Read(s.fd, buf)
		if rerr == nil {
			if n != len(buf) {
				return Frame{}, errors.New("canutil: short read")
			}
			var f Frame
			if err := f.UnmarshalBinary(buf); err != nil {
				return Frame{}, err
			}
			return f, nil
		}
		if rerr != unix.EAGAIN {
			return Frame{}, rerr
		}
		if err := s.wait(ctx, unix.POLLIN); err != nil {
			return Frame{}, err
		}
	}
}

// wait polls the socket for events, waking at least every pollInterval to
// observe context cancellation.
func (s *socketCAN) wait(ctx context.Context, events int16) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := pollInterval
		if deadline, ok := ctx.Deadline(); ok {
			if d := time.Until(deadline); d < timeout {
				timeout = d
			}
		}
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
		fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
		n, err := unix.Poll(fds, int(timeout/time.Millisecond)+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
	}
}
