package ftpd

import "github.com/Singular112/ftp-server/internal/ftpd/ftpmetrics"

// sessionTable is the connection table of spec §3/§4.E: a mapping
// from control-socket file descriptor to Session with O(1) lookup,
// insert and remove, exclusively owning every Session it holds.
type sessionTable struct {
	sessions map[int]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[int]*Session)}
}

// insert adds s, keyed by its control socket's file descriptor.
func (t *sessionTable) insert(s *Session) {
	t.sessions[s.Control.FD()] = s
	ftpmetrics.ActiveSessions.Inc()
}

// lookup returns the session owning control-socket fd, if any.
func (t *sessionTable) lookup(fd int) (*Session, bool) {
	s, ok := t.sessions[fd]
	return s, ok
}

// remove closes fd's session (control socket first, per spec §4.E,
// though destroy is idempotent either way) and drops it from the
// table. A no-op if fd is not known.
func (t *sessionTable) remove(fd int) {
	s, ok := t.sessions[fd]
	if !ok {
		return
	}
	_ = s.Control.Close()
	s.destroy()
	delete(t.sessions, fd)
	ftpmetrics.ActiveSessions.Dec()
}

// fds returns every control-socket file descriptor currently live, in
// no particular order, for registration with the poller.
func (t *sessionTable) fds() []int {
	fds := make([]int, 0, len(t.sessions))
	for fd := range t.sessions {
		fds = append(fds, fd)
	}
	return fds
}
