// Package ftplog is the server's logging seam: a small set of
// package-level functions over one configured *logrus.Logger,
// mirroring the Debugf/Infof/Errorf texture rclone's fs package uses
// everywhere (see backend/ftp/ftp.go's fs.Debugf(f, ...) calls) —
// re-expressed over logrus (a direct rclone dependency) instead of
// rclone's own internal fs.Log, replacing the C++ source's TAG/macro
// logging. The logger is package-wide mutable state: one logger for
// the whole process, swapped with SetLogger; it is not injected per
// server or per session.
package ftplog

import "github.com/sirupsen/logrus"

var std = logrus.StandardLogger()

// SetLogger replaces the package-wide logger, e.g. to raise the level
// or change the output writer from cmd/ftpd.
func SetLogger(l *logrus.Logger) {
	std = l
}

// Logger returns the currently configured logger.
func Logger() *logrus.Logger {
	return std
}

// Subject is anything loggable with a stable, short identity — a
// session, a listener, the server itself.
type Subject interface {
	LogID() string
}

// Debugf logs at debug level, tagged with subject's LogID.
func Debugf(subject Subject, format string, args ...interface{}) {
	std.WithField("id", subject.LogID()).Debugf(format, args...)
}

// Infof logs at info level.
func Infof(subject Subject, format string, args ...interface{}) {
	std.WithField("id", subject.LogID()).Infof(format, args...)
}

// Errorf logs at error level.
func Errorf(subject Subject, format string, args ...interface{}) {
	std.WithField("id", subject.LogID()).Errorf(format, args...)
}
