// Package ftpsock is the byte-oriented stream socket abstraction the
// reactor drives: non-blocking TCP listen/accept/recv/send and a
// multi-socket readiness primitive with a bounded timeout.
//
// Built directly on golang.org/x/sys/unix rather than net.Conn so the
// reactor can genuinely poll a set of raw file descriptors itself —
// the same seam runZeroInc-conniver/runZeroInc-sockstats reach for
// (github.com/higebu/netfd, syscall.RawConn) when they need to drive
// or inspect a socket below the runtime's own netpoller. IPv4 only,
// matching spec.md's Non-goals (no IPv6).
package ftpsock

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by Accept/Recv when no data or connection
// is currently available on a non-blocking socket.
var ErrWouldBlock = errors.New("ftpsock: operation would block")

// Socket is a single non-blocking stream or listening socket.
type Socket struct {
	fd int
}

// FD returns the underlying file descriptor, for registration with a
// Poller.
func (s *Socket) FD() int { return s.fd }

// ListenTCP creates, binds and listens a non-blocking IPv4 TCP socket
// on port (0.0.0.0:port), backlog 5 per spec §4.D.
func ListenTCP(port int) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, 5); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Socket{fd: fd}, nil
}

// BoundPort reports the local port a listening socket was bound to —
// used after binding to port 0 to let the OS choose a free port.
func (s *Socket) BoundPort() (int, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return 0, err
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, errors.New("ftpsock: not an IPv4 socket")
	}
	return in4.Port, nil
}

// LocalIPv4 returns the four octets of the local address this socket
// is bound to, for rendering into a PASV reply.
func (s *Socket) LocalIPv4() ([4]byte, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return [4]byte{}, err
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return [4]byte{}, errors.New("ftpsock: not an IPv4 socket")
	}
	return in4.Addr, nil
}

// Accept returns ErrWouldBlock if no connection is pending.
func (s *Socket) Accept() (*Socket, error) {
	nfd, _, err := unix.Accept(s.fd)
	if err != nil {
		if isWouldBlock(err) {
			return nil, ErrWouldBlock
		}
		return nil, err
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		_ = unix.Close(nfd)
		return nil, err
	}
	return &Socket{fd: nfd}, nil
}

// Recv reads into buf, returning ErrWouldBlock if nothing is
// available yet. n == 0, err == nil signals the peer closed the
// connection (EOF), matching the BSD-socket recv(2) convention the
// reactor's disconnect logic (spec §4.I) depends on.
func (s *Socket) Recv(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Send writes all of data, retrying on partial writes and on
// non-fatal errors (EAGAIN/EINTR) without ever subtracting a negative
// byte count from the remaining buffer — the defect spec §9 calls out
// in the original's partial-write handling is deliberately not
// reproduced here.
func (s *Socket) Send(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(s.fd, data)
		if err != nil {
			if isWouldBlock(err) {
				continue
			}
			return err
		}
		if n > 0 {
			data = data[n:]
		}
	}
	return nil
}

// Close releases the file descriptor. Idempotent: closing an
// already-closed Socket returns EBADF without touching any descriptor
// (the fd number may since have been reused), which callers on a
// teardown path should ignore.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return unix.EBADF
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

// IsPeerClosed reports whether err indicates the peer closed the
// connection or it was never connected (spec §4.D: connection-reset,
// not-connected) — the reactor tears the session down on these.
func IsPeerClosed(err error) bool {
	return errors.Is(err, unix.ECONNRESET) || errors.Is(err, unix.ENOTCONN) || errors.Is(err, unix.EPIPE)
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINPROGRESS) || errors.Is(err, unix.EINTR)
}

// Poller multiplexes readiness across a set of registered file
// descriptors using unix.Poll, the portable (non-Linux-specific)
// member of the x/sys/unix readiness family.
type Poller struct{}

// Wait blocks for up to timeout for any of fds to become readable,
// returning the subset that is. A nil/empty result with a nil error
// means the timeout elapsed with nothing ready, which is how the
// reactor observes its stop flag every 500ms (spec §4.I, §5).
func (Poller) Wait(fds []int, timeout time.Duration) (ready map[int]bool, err error) {
	if len(fds) == 0 {
		time.Sleep(timeout)
		return nil, nil
	}
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	n, err := unix.Poll(pfds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	ready = make(map[int]bool, n)
	for _, p := range pfds {
		if p.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ready[int(p.Fd)] = true
		}
	}
	return ready, nil
}
