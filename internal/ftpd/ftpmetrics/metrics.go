// Package ftpmetrics exposes the server's Prometheus instrumentation,
// grounded on runZeroInc-conniver/runZeroInc-sockstats's direct use of
// github.com/prometheus/client_golang for connection-level telemetry,
// and on rclone's own go.mod carrying the same library. Observability
// is an ambient concern spec.md never excludes, so it is carried even
// though the spec's Non-goals keep the protocol surface minimal.
package ftpmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveSessions is the number of control connections currently
	// held open by the connection table.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "singularftp",
		Name:      "active_sessions",
		Help:      "Number of FTP control connections currently open.",
	})

	// CommandsTotal counts dispatched commands by verb.
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "singularftp",
		Name:      "commands_total",
		Help:      "Number of FTP commands dispatched, by verb.",
	}, []string{"verb"})

	// BytesTransferredTotal counts bytes moved over data channels, by
	// direction (retr/stor). Only transfers that complete are counted.
	BytesTransferredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "singularftp",
		Name:      "bytes_transferred_total",
		Help:      "Bytes moved over FTP data channels.",
	}, []string{"direction"})

	// PasvBindFailuresTotal counts PASV commands for which every bind
	// attempt failed, so no listening socket was created (spec §7:
	// these are logged, not replied to). Single failed binds that a
	// later retry recovers from are not counted.
	PasvBindFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "singularftp",
		Name:      "pasv_bind_failures_total",
		Help:      "PASV commands that failed to bind a data listener after all retries.",
	})
)

// Registry is a dedicated Prometheus registry pre-populated with this
// package's collectors, for cmd/ftpd to serve on a metrics endpoint.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(ActiveSessions, CommandsTotal, BytesTransferredTotal, PasvBindFailuresTotal)
}
