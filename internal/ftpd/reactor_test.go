package ftpd

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
)

// testServer boots a Reactor on an OS-chosen port and returns the
// address of its control channel plus a teardown func.
func testServer(t *testing.T) (controlAddr string, stop func()) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HomeDir = t.TempDir()
	cfg.ListenPort = 0
	cfg.NativeEncoding = ftpenc.UTF8
	cfg.PollTimeout = 50 * time.Millisecond

	r, err := NewReactor(cfg)
	require.NoError(t, err)

	port, err := r.ListenPort()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	return fmt.Sprintf("127.0.0.1:%d", port), func() {
		r.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reactor did not stop")
		}
	}
}

// controlClient wraps a dialed control connection with line-oriented
// read helpers matching the server's CRLF-terminated replies.
type controlClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialControl(t *testing.T, addr string) *controlClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return &controlClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *controlClient) readLine() string {
	c.t.Helper()
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return line
}

func (c *controlClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\r\n"))
	require.NoError(c.t, err)
}

func (c *controlClient) sendAndExpect(line, want string) {
	c.t.Helper()
	c.send(line)
	require.Equal(c.t, want, c.readLine())
}

// parsePASV extracts the host:port advertised by a 227 reply line.
func parsePASV(t *testing.T, line string) string {
	t.Helper()
	open := strings.Index(line, "(")
	closeIdx := strings.Index(line, ")")
	require.True(t, open >= 0 && closeIdx > open)
	parts := strings.Split(line[open+1:closeIdx], ",")
	require.Len(t, parts, 6)
	p1, err := strconv.Atoi(parts[4])
	require.NoError(t, err)
	p2, err := strconv.Atoi(parts[5])
	require.NoError(t, err)
	port := p1*256 + p2
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func TestLoginAndPWDAtRoot(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()

	require.Equal(t, "220 lwftp ready\r\n", c.readLine())
	c.sendAndExpect("USER anonymous", "331 pretend login accepted\r\n")
	c.sendAndExpect("PASS x", "230 fake user logged in\r\n")
	c.sendAndExpect("PWD", "257 \"/\"\r\n")
}

func TestUnknownCommandDoesNotTerminateSession(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()
	c.readLine() // banner

	c.sendAndExpect("QUIT", "500 command not recognized\r\n")
	c.sendAndExpect("PWD", "257 \"/\"\r\n")
}

func TestPassiveListOfEmptyRoot(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()
	c.readLine() // banner

	c.send("PASV")
	pasvReply := c.readLine()
	require.Contains(t, pasvReply, "227 Entering Passive Mode")
	dataAddr := parsePASV(t, pasvReply)

	dataConn, err := net.DialTimeout("tcp", dataAddr, 2*time.Second)
	require.NoError(t, err)
	defer dataConn.Close()
	require.NoError(t, dataConn.SetDeadline(time.Now().Add(5*time.Second)))

	c.send("LIST")
	require.Equal(t, "150 Opening connection\r\n", c.readLine())

	buf := make([]byte, 16)
	n, _ := dataConn.Read(buf)
	require.Equal(t, 0, n)

	require.Equal(t, "226 Transfer Complete\r\n", c.readLine())
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()
	c.readLine() // banner

	payload := []byte("hello")

	// STOR
	c.send("PASV")
	dataAddr := parsePASV(t, c.readLine())
	dataConn, err := net.DialTimeout("tcp", dataAddr, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, dataConn.SetDeadline(time.Now().Add(5*time.Second)))

	c.send("STOR a.bin")
	require.Equal(t, "150 Opening BINARY mode data connection\r\n", c.readLine())
	_, err = dataConn.Write(payload)
	require.NoError(t, err)
	require.NoError(t, dataConn.Close())
	require.Equal(t, "226 Transfer Complete\r\n", c.readLine())

	// RETR
	c.send("PASV")
	dataAddr = parsePASV(t, c.readLine())
	dataConn, err = net.DialTimeout("tcp", dataAddr, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, dataConn.SetDeadline(time.Now().Add(5*time.Second)))

	c.send("RETR a.bin")
	require.Equal(t, "150 Opening BINARY mode data connection\r\n", c.readLine())

	received := make([]byte, 0, len(payload))
	buf := make([]byte, 16)
	for len(received) < len(payload) {
		n, rerr := dataConn.Read(buf)
		received = append(received, buf[:n]...)
		if rerr != nil {
			break
		}
	}
	require.Equal(t, payload, received)
	require.Equal(t, "226 Transfer Complete\r\n", c.readLine())
}

func TestRenameFlowOverWire(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()
	c.readLine() // banner

	c.send("PASV")
	dataAddr := parsePASV(t, c.readLine())
	dataConn, err := net.DialTimeout("tcp", dataAddr, 2*time.Second)
	require.NoError(t, err)
	c.send("STOR old")
	require.Equal(t, "150 Opening BINARY mode data connection\r\n", c.readLine())
	_, err = dataConn.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, dataConn.Close())
	require.Equal(t, "226 Transfer Complete\r\n", c.readLine())

	c.sendAndExpect("RNFR old", "350 File Exists\r\n")
	c.sendAndExpect("RNTO new", "250 RNTO command successful\r\n")
	c.sendAndExpect("RNFR missing", "550 Path permission error\r\n")
}

func TestMKDCWDPWD(t *testing.T) {
	addr, stop := testServer(t)
	defer stop()

	c := dialControl(t, addr)
	defer c.conn.Close()
	c.readLine() // banner

	c.sendAndExpect("MKD X", "257 Directory created\r\n")
	c.sendAndExpect("CWD X", "250 CWD command successful\r\n")
	reply := c.readLineAfter("PWD")
	require.Contains(t, reply, "/X/")
}

// readLineAfter sends a command and returns the reply line, a small
// convenience for assertions that don't compare for exact equality.
func (c *controlClient) readLineAfter(cmd string) string {
	c.send(cmd)
	return c.readLine()
}
