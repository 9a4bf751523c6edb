package ftpd

import (
	"fmt"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpfs"
	"github.com/Singular112/ftp-server/internal/ftpd/ftplog"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpsock"
)

// Reactor is the single-threaded, cooperative socket multiplexer spec
// §4.I describes: it owns the listening socket and every live control
// socket, drives one poll loop, and wires every other component
// together. There is exactly one of these per server process, and
// exactly one goroutine ever calls Run.
type Reactor struct {
	engine   *engine
	listener *ftpsock.Socket
	table    *sessionTable
	poller   ftpsock.Poller
	stop     chan struct{}
}

// NewReactor creates the home directory if absent and binds the
// listening socket, but does not start serving until Run is called.
func NewReactor(cfg Config) (*Reactor, error) {
	if err := ensureHomeDir(cfg.HomeDir); err != nil {
		return nil, fmt.Errorf("ftpd: creating home directory: %w", err)
	}
	listener, err := ftpsock.ListenTCP(cfg.ListenPort)
	if err != nil {
		return nil, fmt.Errorf("ftpd: binding listen socket: %w", err)
	}
	return &Reactor{
		engine:   newEngine(cfg, ftpfs.New()),
		listener: listener,
		table:    newSessionTable(),
		stop:     make(chan struct{}),
	}, nil
}

// ListenPort reports the TCP port the control listener is bound to —
// useful when Config.ListenPort was 0 and the OS chose one.
func (r *Reactor) ListenPort() (int, error) {
	return r.listener.BoundPort()
}

// Stop flips the stop flag; Run observes it within one PollTimeout
// interval (spec §4.I, §5).
func (r *Reactor) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Run drives the poll loop until Stop is called, then closes the
// listen socket and every live session. It blocks the calling
// goroutine for the server's whole lifetime.
func (r *Reactor) Run() error {
	defer r.shutdown()

	for {
		select {
		case <-r.stop:
			return nil
		default:
		}

		fds := append([]int{r.listener.FD()}, r.table.fds()...)
		ready, err := r.poller.Wait(fds, r.engine.cfg.PollTimeout)
		if err != nil {
			return fmt.Errorf("ftpd: poll: %w", err)
		}
		if ready == nil {
			continue
		}

		if ready[r.listener.FD()] {
			r.acceptNew()
		}
		for fd := range ready {
			if fd == r.listener.FD() {
				continue
			}
			r.serviceClient(fd)
		}
	}
}

func (r *Reactor) acceptNew() {
	conn, err := r.listener.Accept()
	if err != nil {
		if err == ftpsock.ErrWouldBlock {
			return
		}
		ftplog.Logger().Errorf("ftpd: accept: %v", err)
		return
	}
	s := newSession(conn, r.engine.cfg.HomeDir, r.engine.cfg.NativeEncoding, r.engine.cfg.RecvBufferSize)
	if err := conn.Send([]byte("220 lwftp ready\r\n")); err != nil {
		ftplog.Errorf(s, "sending banner: %v", err)
		_ = conn.Close()
		return
	}
	r.table.insert(s)
	ftplog.Infof(s, "session accepted")
}

func (r *Reactor) serviceClient(fd int) {
	s, ok := r.table.lookup(fd)
	if !ok {
		return
	}
	n, err := s.Control.Recv(s.recvBuf)
	switch {
	case err == ftpsock.ErrWouldBlock:
		return
	case err != nil:
		if !ftpsock.IsPeerClosed(err) {
			ftplog.Errorf(s, "recv: %v", err)
		}
		r.table.remove(fd)
		return
	case n == 0:
		ftplog.Infof(s, "peer closed control channel")
		r.table.remove(fd)
		return
	}

	verb, arg := parseCommand(s.recvBuf[:n])
	reply := r.engine.dispatch(s, verb, arg)
	if reply == "" {
		return
	}
	if err := s.Control.Send([]byte(reply)); err != nil {
		if !ftpsock.IsPeerClosed(err) {
			ftplog.Errorf(s, "send reply: %v", err)
		}
		r.table.remove(fd)
	}
}

func (r *Reactor) shutdown() {
	_ = r.listener.Close()
	for _, fd := range r.table.fds() {
		r.table.remove(fd)
	}
}
