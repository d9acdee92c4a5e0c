package h1c

import "go.uber.org/zap"

// nopLogger is substituted whenever the caller doesn't supply one, so
// the engine never has to nil-check on the hot path. Grounded on
// packetd/logger/logger.go's zap wrapper, simplified: this is an
// embeddable library, not an application, so there is no global/std
// logger — callers inject their own *zap.Logger (or none) per
// Connection.
func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func orNopLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return nopLogger()
	}
	return l
}
