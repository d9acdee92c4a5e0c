package h1c

import (
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Connection at construction time. Grounded on
// valyala-fasthttp's struct-literal Client/HostClient configuration
// style: no functional options, no config-file parser — a connection
// engine is configured by its embedder, not by a file on disk.
type Config struct {
	// InitialWindow is the connection's starting read-window credit
	// (§3 Connection, §4.3 "Read-window flow control"). Zero means no
	// body bytes are ever accepted until the caller grants window via
	// UpdateWindow.
	InitialWindow int64

	// Logger receives diagnostic events on fatal/shutdown paths. Nil is
	// equivalent to a no-op logger.
	Logger *zap.Logger

	// Registerer, if non-nil, receives this connection's Prometheus
	// metrics. Nil disables instrumentation.
	Registerer prometheus.Registerer
}
