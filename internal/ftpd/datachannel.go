package ftpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
	"github.com/Singular112/ftp-server/internal/ftpd/ftplog"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpmetrics"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpsock"
)

const (
	// maxPasvBindAttempts bounds the retry loop spec §9 suggests as
	// the robust alternative to the source's single-shot, often-silent
	// PASV bind failure: "retry a bounded number of times or let the
	// OS choose". This port retries instead of letting the OS choose,
	// to keep the advertised port inside the source's documented
	// [128,191]/[0,255] range.
	maxPasvBindAttempts = 20

	// dataAcceptTimeout bounds how long LIST/RETR/STOR will wait for
	// the client to open the advertised data connection before giving
	// up with a 426, rather than blocking the single reactor task
	// forever (spec §5 accepts this command-scoped block but an
	// unbounded one would wedge the whole server on a client that
	// never connects).
	dataAcceptTimeout = 30 * time.Second

	// transferTimeout bounds one LIST/RETR/STOR data transfer.
	transferTimeout = 2 * time.Minute

	transferBlockSize = 4096
)

var (
	errNoDataListener    = errors.New("ftpd: no PASV listener pending")
	errDataAcceptTimeout = errors.New("ftpd: timed out waiting for data connection")
)

// doPASV allocates a pseudo-random port in the source's documented
// range (spec §4.G, §9), closing any prior listener first. Unlike the
// source, a bind collision is retried up to maxPasvBindAttempts times
// before giving up — the source's behavior of never replying at all
// on the first failure is preserved only once attempts are exhausted.
func (e *engine) doPASV(s *Session) string {
	s.closeDataListen()

	localIP, err := s.Control.LocalIPv4()
	if err != nil {
		ftplog.Errorf(s, "PASV: could not read control socket address: %v", err)
		return ""
	}

	for attempt := 0; attempt < maxPasvBindAttempts; attempt++ {
		p1 := 128 + rand.Intn(64)
		p2 := rand.Intn(256)
		port := 256*p1 + p2

		listener, err := ftpsock.ListenTCP(port)
		if err != nil {
			continue
		}
		s.DataListen = listener
		s.ChannelMode = Passive
		return fmt.Sprintf("227 Entering Passive Mode (%d,%d,%d,%d,%d,%d)\r\n",
			localIP[0], localIP[1], localIP[2], localIP[3], p1, p2)
	}

	ftpmetrics.PasvBindFailuresTotal.Inc()
	ftplog.Errorf(s, "PASV: failed to bind a data listener after %d attempts", maxPasvBindAttempts)
	return ""
}

// acceptDataSocket blocks (spec §4.H: "call accept once; blocking is
// acceptable here") until a client connects to the pending PASV
// listener, or dataAcceptTimeout elapses.
func (e *engine) acceptDataSocket(s *Session) (*ftpsock.Socket, error) {
	if s.DataListen == nil {
		return nil, errNoDataListener
	}
	var poller ftpsock.Poller
	deadline := time.Now().Add(dataAcceptTimeout)
	for time.Now().Before(deadline) {
		ready, err := poller.Wait([]int{s.DataListen.FD()}, 200*time.Millisecond)
		if err != nil {
			return nil, err
		}
		if !ready[s.DataListen.FD()] {
			continue
		}
		conn, err := s.DataListen.Accept()
		if err == ftpsock.ErrWouldBlock {
			continue
		}
		return conn, err
	}
	return nil, errDataAcceptTimeout
}

// teardownDataChannel closes the accepted data socket and the PASV
// listener itself — the listener is single-use (spec §4.H: "a new
// PASV is required for each transfer").
func (e *engine) teardownDataChannel(s *Session, data *ftpsock.Socket) {
	if data != nil {
		_ = data.Close()
	}
	s.closeDataListen()
	s.ChannelMode = Active
}

// runTransfer bounds fn to transferTimeout using an errgroup-managed
// context, so a stalled peer unwinds the single reactor task instead
// of wedging it — the transfer still runs inline (the reactor is
// cooperative, spec §5), but fn is expected to check ctx between
// blocks on a long transfer.
func runTransfer(fn func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()
	g.Go(func() error {
		return fn(ctx)
	})
	return g.Wait()
}

func (e *engine) doLIST(s *Session) string {
	if err := s.Control.Send([]byte("150 Opening connection\r\n")); err != nil {
		ftplog.Errorf(s, "LIST: failed to send 150: %v", err)
		return ""
	}

	data, err := e.acceptDataSocket(s)
	if err != nil {
		ftplog.Errorf(s, "LIST: data accept failed: %v", err)
		e.teardownDataChannel(s, data)
		return "426 Broken pipe\r\n"
	}

	err = runTransfer(func(ctx context.Context) error {
		return e.streamListing(s, data)
	})
	e.teardownDataChannel(s, data)
	if err != nil {
		ftplog.Errorf(s, "LIST: transfer failed: %v", err)
		return "426 Broken pipe\r\n"
	}
	return "226 Transfer Complete\r\n"
}

func (e *engine) streamListing(s *Session, data *ftpsock.Socket) error {
	entries, err := e.fs.Enumerate(s.Nav.AbsolutePath())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := string(ftpenc.FromNative([]byte(entry.Name), s.Encoding, e.cfg.NativeEncoding))
		line := formatListLine(entry, name)
		if err := data.Send([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) doRETR(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	defer f.Close()

	if err := s.Control.Send([]byte("150 Opening BINARY mode data connection\r\n")); err != nil {
		ftplog.Errorf(s, "RETR: failed to send 150: %v", err)
		return ""
	}

	data, err := e.acceptDataSocket(s)
	if err != nil {
		ftplog.Errorf(s, "RETR: data accept failed: %v", err)
		e.teardownDataChannel(s, data)
		return "426 Broken pipe\r\n"
	}

	var sent int64
	err = runTransfer(func(ctx context.Context) error {
		buf := make([]byte, transferBlockSize)
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, rerr := f.Read(buf)
			if n > 0 {
				if werr := data.Send(buf[:n]); werr != nil {
					return werr
				}
				sent += int64(n)
			}
			if rerr == io.EOF {
				return nil
			}
			if rerr != nil {
				return rerr
			}
		}
	})
	e.teardownDataChannel(s, data)
	if err != nil {
		ftplog.Errorf(s, "RETR: transfer failed: %v", err)
		return "426 Broken pipe\r\n"
	}
	ftpmetrics.BytesTransferredTotal.WithLabelValues("retr").Add(float64(sent))
	return "226 Transfer Complete\r\n"
}

func (e *engine) doSTOR(s *Session, arg string) string {
	path := e.resolvePath(s, arg)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	defer f.Close()

	if err := s.Control.Send([]byte("150 Opening BINARY mode data connection\r\n")); err != nil {
		ftplog.Errorf(s, "STOR: failed to send 150: %v", err)
		return ""
	}

	data, err := e.acceptDataSocket(s)
	if err != nil {
		ftplog.Errorf(s, "STOR: data accept failed: %v", err)
		e.teardownDataChannel(s, data)
		return "426 Broken pipe\r\n"
	}

	var received int64
	err = runTransfer(func(ctx context.Context) error {
		buf := make([]byte, transferBlockSize)
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, rerr := data.Recv(buf)
			if rerr == ftpsock.ErrWouldBlock {
				continue
			}
			if n == 0 && rerr == nil {
				return nil // peer half-closed
			}
			if n > 0 {
				if _, werr := f.Write(buf[:n]); werr != nil {
					return werr
				}
				received += int64(n)
			}
			if rerr != nil {
				if ftpsock.IsPeerClosed(rerr) {
					return nil
				}
				return rerr
			}
		}
	})
	e.teardownDataChannel(s, data)
	if err != nil {
		return fmt.Sprintf("550 %s\r\n", err)
	}
	ftpmetrics.BytesTransferredTotal.WithLabelValues("stor").Add(float64(received))
	return "226 Transfer Complete\r\n"
}
