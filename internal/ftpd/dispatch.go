package ftpd

import (
	"fmt"
	"strings"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
	"github.com/Singular112/ftp-server/internal/ftpd/ftplog"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpmetrics"
)

// dispatch executes one parsed command against session, returning the
// CRLF-terminated control-channel reply to write back. The reply is
// empty when nothing is to be sent: a PASV that could not bind a
// listener, or a transfer whose 150 preliminary reply could not be
// sent. Transfer verbs (LIST/RETR/STOR) send their 150 reply on the
// control socket themselves and drive the data channel via the
// engine's datachannel.go methods. A panic inside a handler is
// recovered, logged, and turned into a 550 reply.
func (e *engine) dispatch(s *Session, verb, arg string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			ftplog.Errorf(s, "panic in %s: %v", verb, r)
			reply = "550 internal error\r\n"
		}
	}()
	ftpmetrics.CommandsTotal.WithLabelValues(verb).Inc()
	ftplog.Debugf(s, "dispatch %s %q", verb, arg)

	switch verb {
	case VerbUSER:
		return "331 pretend login accepted\r\n"
	case VerbPASS:
		return "230 fake user logged in\r\n"
	case VerbOPTS:
		return e.doOpts(s, arg)
	case VerbPWD:
		return e.doPWD(s)
	case VerbTYPE:
		return "200 Type set to I\r\n"
	case VerbCWD:
		return e.doCWD(s, arg)
	case VerbPASV:
		return e.doPASV(s)
	case VerbLIST:
		return e.doLIST(s)
	case VerbSYST:
		return "215 WIN32 SingularFTP v.0.01\r\n"
	case VerbFEAT:
		return "500 command not recognized\r\n"
	case VerbHELP:
		return "500 command not recognized\r\n"
	case VerbNOOP:
		return "200 OK\r\n"
	case VerbDELE:
		return e.doDELE(s, arg)
	case VerbCDUP:
		s.Nav.Pop()
		return "200 OK\r\n"
	case VerbRETR:
		return e.doRETR(s, arg)
	case VerbSIZE:
		return e.doSIZE(s, arg)
	case VerbMKD:
		return e.doMKD(s, arg)
	case VerbRNFR:
		return e.doRNFR(s, arg)
	case VerbRNTO:
		return e.doRNTO(s, arg)
	case VerbRMD:
		return e.doRMD(s, arg)
	case VerbSTOR:
		return e.doSTOR(s, arg)
	default:
		return "500 command not recognized\r\n"
	}
}

// resolvePath translates arg from the session's encoding to the
// server's native encoding and appends it to the session's current
// absolute host path — the composition rule of spec §4.G, a plain
// string concatenation like
// original_source/src/ftp_server.cpp's `current_directory() + command_value`.
// No separator is inserted here: nav.AbsolutePath() always ends in
// one, because ftppath.New gives Root a trailing separator.
func (e *engine) resolvePath(s *Session, arg string) string {
	native := ftpenc.ToNative([]byte(arg), s.Encoding, e.cfg.NativeEncoding)
	return s.Nav.AbsolutePath() + string(native)
}

func (e *engine) doOpts(s *Session, arg string) string {
	if arg == "utf8 on" {
		s.Encoding = ftpenc.UTF8
		return "200 ok\r\n"
	}
	return "500 command not recognized\r\n"
}

func (e *engine) doPWD(s *Session) string {
	rel := "/" + s.Nav.RelativePath()
	rel = strings.ReplaceAll(rel, `\`, "/")
	out := ftpenc.FromNative([]byte(rel), s.Encoding, e.cfg.NativeEncoding)
	return fmt.Sprintf("257 \"%s\"\r\n", string(out))
}

func (e *engine) doCWD(s *Session, arg string) string {
	if strings.HasPrefix(arg, "/") {
		s.Nav.MoveToRoot()
	}
	native := ftpenc.ToNative([]byte(arg), s.Encoding, e.cfg.NativeEncoding)
	if !s.Nav.ChangeDir(string(native)) {
		return "550 Could not change directory\r\n"
	}
	return "250 CWD command successful\r\n"
}

func (e *engine) doDELE(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	if err := e.fs.UnlinkFile(path); err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	return "250 DELE command successful\r\n"
}

func (e *engine) doSIZE(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	st := e.fs.StatPath(path)
	if !st.Exists {
		return "550 No such file\r\n"
	}
	return fmt.Sprintf("213 %d\r\n", st.Size)
}

func (e *engine) doMKD(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	if err := e.fs.Mkdir(path); err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	return "257 Directory created\r\n"
}

func (e *engine) doRNFR(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	st := e.fs.StatPath(path)
	if !st.Exists {
		s.RenameFrom = ""
		return "550 Path permission error\r\n"
	}
	s.RenameFrom = path
	return "350 File Exists\r\n"
}

func (e *engine) doRNTO(s *Session, arg string) string {
	if s.RenameFrom == "" {
		return "550 No rename in progress\r\n"
	}
	newPath := e.resolvePath(s, arg)
	if err := e.fs.Rename(s.RenameFrom, newPath); err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	// The original leaves rename_from set after a successful RNTO
	// (spec §9); this port clears it instead — tests are told not to
	// assume either behaviour, and a cleared field is the safer
	// default for a second accidental RNTO.
	s.RenameFrom = ""
	return "250 RNTO command successful\r\n"
}

func (e *engine) doRMD(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	if err := e.fs.RemoveDirRecursive(path, false); err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	return "250 RMD command successful\r\n"
}
