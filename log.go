package eoltrim

import "log/slog"

var logger = slog.Default()

// SetLogger replaces the logger used by this package.
// The default is [slog.Default].
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
