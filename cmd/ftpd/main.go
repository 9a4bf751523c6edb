// Command ftpd starts the SingularFTP server: a control-port listener
// rooted at a configured home directory, serving RFC 959 over passive
// mode. Flag and command wiring follows rclone's cmd/serve/*
// convention — a package-level *cobra.Command with its flags
// registered in init() via pflag — re-expressed as a single binary
// instead of a subcommand of a larger tool, since this server has no
// sibling commands to share a root with.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Singular112/ftp-server/internal/ftpd"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpenc"
	"github.com/Singular112/ftp-server/internal/ftpd/ftplog"
	"github.com/Singular112/ftp-server/internal/ftpd/ftpmetrics"
)

var (
	homeDir        string
	nativeEncoding string
	listenPort     int
	metricsAddr    string
	recvBufferSize int
	pollTimeout    time.Duration
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "ftpd",
	Short: "Serve a filesystem rooted at home-dir over FTP",
	Long: `ftpd serves a passive-mode-only FTP control and data channel
rooted at --home-dir, translating file and path names between UTF-8
and Windows-1251 for clients that never negotiate UTF-8.`,
	RunE: runServe,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&homeDir, "home-dir", "", "host directory the virtual filesystem is rooted at (required)")
	flags.StringVar(&nativeEncoding, "native-encoding", "UTF-8", "server-native encoding: UTF-8 or Windows-1251")
	flags.IntVar(&listenPort, "port", 21, "control-channel TCP port")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9100 (empty disables)")
	flags.IntVar(&recvBufferSize, "recv-buffer-size", 2048, "control-socket recv buffer size in bytes")
	flags.DurationVar(&pollTimeout, "poll-timeout", 500*time.Millisecond, "reactor poll timeout")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	_ = rootCmd.MarkFlagRequired("home-dir")
}

func runServe(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := logrus.StandardLogger()
	logger.SetLevel(level)
	ftplog.SetLogger(logger)

	native, err := parseEncoding(nativeEncoding)
	if err != nil {
		return err
	}

	cfg := ftpd.DefaultConfig()
	cfg.HomeDir = homeDir
	cfg.NativeEncoding = native
	cfg.ListenPort = listenPort
	cfg.RecvBufferSize = recvBufferSize
	cfg.PollTimeout = pollTimeout

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	reactor, err := ftpd.NewReactor(cfg)
	if err != nil {
		return fmt.Errorf("starting reactor: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"home_dir": cfg.HomeDir,
		"port":     cfg.ListenPort,
		"encoding": cfg.NativeEncoding,
	}).Info("ftpd: listening")

	return reactor.Run()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ftpmetrics.Registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		ftplog.Logger().WithError(err).Error("ftpd: metrics server exited")
	}
}

func parseEncoding(s string) (ftpenc.Encoding, error) {
	switch s {
	case "UTF-8", "utf-8", "UTF8":
		return ftpenc.UTF8, nil
	case "Windows-1251", "windows-1251", "CP1251", "cp1251":
		return ftpenc.Windows1251, nil
	default:
		return 0, fmt.Errorf("unrecognized encoding %q (want UTF-8 or Windows-1251)", s)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
