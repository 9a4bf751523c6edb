package ftpd

import (
	"os"
	"time"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpfs"
)

// Config carries the two values spec §6 names as the server's whole
// configuration surface, plus the operational knobs (listen port,
// recv-buffer size, poll timeout) spec §4.I and §9 leave as
// implementation choices rather than client-visible behavior.
type Config struct {
	// HomeDir is the absolute host path every session is rooted at.
	// Auto-created (mode 0777) at startup if absent.
	HomeDir string

	// NativeEncoding is the server-wide encoding fixed at startup;
	// sessions start in this encoding.
	NativeEncoding ftpenc.Encoding

	// ListenPort is the control-channel TCP port (default 21).
	ListenPort int

	// PollTimeout bounds each reactor poll iteration; spec §4.I
	// mandates 500ms so the stop flag is observed promptly.
	PollTimeout time.Duration

	// RecvBufferSize is the control-socket recv buffer: 128 bytes on
	// constrained hosts, 2048 on general ones (spec §4.I).
	RecvBufferSize int
}

// DefaultConfig returns the general-host defaults spec §4.I describes.
func DefaultConfig() Config {
	return Config{
		ListenPort:     21,
		PollTimeout:    500 * time.Millisecond,
		RecvBufferSize: 2048,
		NativeEncoding: ftpenc.UTF8,
	}
}

// engine holds the collaborators the dispatcher and data-channel
// manager close over: the configuration and the filesystem adapter.
// It carries no per-connection state — that lives on Session and in
// the Reactor's sessionTable.
type engine struct {
	cfg Config
	fs  *ftpfs.Filesystem
}

func newEngine(cfg Config, fs *ftpfs.Filesystem) *engine {
	return &engine{cfg: cfg, fs: fs}
}

// ensureHomeDir creates cfg.HomeDir (mode 0777) if it does not exist,
// per spec §4.I / §7's startup-failure rule.
func ensureHomeDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return &os.PathError{Op: "ensureHomeDir", Path: path, Err: os.ErrExist}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(path, 0777)
}
