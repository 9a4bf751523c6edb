// Package ftpd wires the encoding, path, filesystem and socket
// collaborators into the per-client protocol engine and the reactor
// that drives it — the "hard, interesting subsystem" this server
// exists to demonstrate. Grounded throughout on
// original_source/src/ftp_server.{h,cpp}, re-expressed as plain
// functions over a Session value rather than a single overridable
// connection class (see DESIGN.md's note on dropped polymorphism).
package ftpd

import (
	"time"

	"github.com/google/uuid"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
	"github.com/Singular112/ftp-server/internal/ftpd/ftplog"
	"github.com/Singular112/ftp-server/internal/ftpd/ftppath"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpsock"
)

// TransferMode is the session's negotiated TYPE. Only Binary is ever
// honored; Ascii is accepted and acknowledged but never changes how
// bytes are streamed (spec §3, §4.G TYPE).
type TransferMode int

const (
	Binary TransferMode = iota
	Ascii
)

// ChannelMode tracks whether the session has negotiated a data
// channel. Active is the initial value and is never actually used for
// transfers; only Passive (via PASV) is wired up (spec §3).
type ChannelMode int

const (
	Active ChannelMode = iota
	Passive
)

// Session holds everything the protocol engine mutates for one
// connected client. Every field here is touched only by the reactor's
// single task — there is no locking because there is no concurrent
// access (spec §5).
type Session struct {
	id uuid.UUID

	Control *ftpsock.Socket

	// DataListen is the PASV listener created by the last PASV
	// command, or nil if none is currently pending. At most one
	// exists at a time (spec §3, invariant 2).
	DataListen *ftpsock.Socket

	Nav      *ftppath.Navigator
	RootPath string

	// Encoding is the encoding currently negotiated with this
	// client. It starts equal to the server's native encoding and
	// can be switched to UTF-8 by "opts utf8 on".
	Encoding ftpenc.Encoding

	TransferMode TransferMode
	ChannelMode  ChannelMode

	// RenameFrom is the absolute host path captured by a successful
	// RNFR, consumed (or replaced) by the next RNFR/RNTO.
	RenameFrom string

	// recvBuf is reused across recv calls; sized per cfg.RecvBufferSize.
	recvBuf []byte

	createdAt time.Time
}

// newSession builds a Session rooted at root, in the given native
// encoding, with a recv buffer of the given size.
func newSession(control *ftpsock.Socket, root string, native ftpenc.Encoding, recvBufSize int) *Session {
	return &Session{
		id:           uuid.New(),
		Control:      control,
		Nav:          ftppath.New(root),
		RootPath:     root,
		Encoding:     native,
		TransferMode: Binary,
		ChannelMode:  Active,
		recvBuf:      make([]byte, recvBufSize),
		createdAt:    time.Now(),
	}
}

// LogID implements ftplog.Subject with a short, stable identifier.
func (s *Session) LogID() string {
	return s.id.String()[:8]
}

// destroy releases every socket the session owns. Both the control
// and data-listen sockets tolerate being closed twice (spec §4.E:
// "both orders must be safe"), so destroy ignores close errors.
func (s *Session) destroy() {
	ftplog.Infof(s, "session closed after %s", time.Since(s.createdAt))
	if s.Control != nil {
		_ = s.Control.Close()
	}
	s.closeDataListen()
}

// closeDataListen tears down any pending PASV listener — called
// before a new PASV, and from destroy.
func (s *Session) closeDataListen() {
	if s.DataListen != nil {
		_ = s.DataListen.Close()
		s.DataListen = nil
	}
}
