package cropfilter

import (
	"go.uber.org/zap"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

// SetLogger configures the logger used by cropfilter and its backend
// packages. By default nothing is logged. Passing nil restores that.
//
// Debug entries describe resolved crops, warnings describe rejected region
// updates and libvips diagnostics.
func SetLogger(l *zap.Logger) {
	logging.Set(l)
}

// Logger returns the logger configured with SetLogger.
func Logger() *zap.Logger {
	return logging.L()
}
