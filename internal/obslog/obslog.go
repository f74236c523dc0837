// Package obslog wires the engine's logging through zap, replacing the
// teacher's scattered fmt.Printf/log.Printf calls with a single
// structured logger passed down to whatever needs one.
package obslog

import "go.uber.org/zap"

// New returns a production zap logger, or a development logger (full
// stack traces, console-friendly encoding) when dev is true.
func New(dev bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Noop returns a logger that discards everything, for tests that don't
// want log output cluttering -v runs.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
