package kernel

import "log/slog"

// logger is the package-wide logger used by schedulers created without WithLogger.
var logger *slog.Logger = slog.Default()

// SetLogger overrides the package logger.
//
// If not set, slog.Default() is used. Schedulers already created keep the
// logger they were built with.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}
