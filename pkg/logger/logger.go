// Package logger constructs the structured logger every other package in
// this module consumes as a *zap.SugaredLogger. It exists to satisfy the
// dependency pkg/lucasdb has on a ready-made logger without forcing every
// embedder to wire up zap by hand.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Mode selects between zap's production (JSON, sampled) and development
// (console, unsampled, debug-level) presets.
type Mode int

const (
	// Production emits JSON logs at info level and above, suitable for
	// embedding lucasdb inside a long-running service.
	Production Mode = iota
	// Development emits human-readable console logs at debug level and
	// above, suitable for tests and local experimentation.
	Development
)

// New builds a *zap.SugaredLogger tagged with the given service name. The
// name is attached once as a structured field rather than interpolated into
// the message, so log aggregation can filter on it.
func New(service string, mode Mode) (*zap.SugaredLogger, error) {
	var base *zap.Logger
	var err error

	switch mode {
	case Development:
		base, err = zap.NewDevelopment()
	default:
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("logger: failed to construct zap logger: %w", err)
	}

	return base.Sugar().With("service", service), nil
}

// Noop returns a logger that discards everything, useful for tests that
// don't want log noise but still need a non-nil *zap.SugaredLogger.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
