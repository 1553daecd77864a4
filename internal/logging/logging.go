// Package logging holds the zap logger shared by cropfilter and its
// backends. It lives in its own leaf package so that backend packages, which
// the root package imports, can log without an import cycle.
package logging

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var logger = atomic.NewPointer(zap.NewNop())

// Set replaces the active logger. A nil logger restores the no-op default.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// L returns the active logger.
func L() *zap.Logger {
	return logger.Load()
}

// Named returns the active logger scoped to a component name.
func Named(name string) *zap.Logger {
	return logger.Load().Named(name)
}
