package h1c

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional set of engine-level counters/gauges (not a
// Non-goal: spec.md excludes body transforms, caching, retry/redirect
// and TLS/DNS, but not observability). Grounded on packetd's use of
// prometheus/client_golang for protocol-engine instrumentation. A nil
// *Metrics (what NewMetrics returns for a nil Config.Registerer)
// disables instrumentation entirely rather than forcing a global registry on
// the caller.
type Metrics struct {
	streamsCompleted *prometheus.CounterVec
	bodyBytes        *prometheus.CounterVec
	readWindow       prometheus.Gauge
}

// NewMetrics registers h1c's connection-engine metrics against reg and
// returns a handle for a Connection to update, or nil if reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		streamsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h1c",
			Name:      "streams_completed_total",
			Help:      "Streams completed, labeled by outcome code.",
		}, []string{"code"}),
		bodyBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h1c",
			Name:      "body_bytes_total",
			Help:      "Bytes moved, labeled by direction: out counts every request byte pushed to the sink (head, chunk framing and body); in counts response body bytes.",
		}, []string{"direction"}),
		readWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "h1c",
			Name:      "read_window_bytes",
			Help:      "Current unacknowledged read-window credit.",
		}),
	}
	reg.MustRegister(m.streamsCompleted, m.bodyBytes, m.readWindow)
	return m
}

func (m *Metrics) completed(code Code) {
	if m == nil {
		return
	}
	m.streamsCompleted.WithLabelValues(code.String()).Inc()
}

func (m *Metrics) bodyOut(n int) {
	if m == nil || n == 0 {
		return
	}
	m.bodyBytes.WithLabelValues("out").Add(float64(n))
}

func (m *Metrics) bodyIn(n int) {
	if m == nil || n == 0 {
		return
	}
	m.bodyBytes.WithLabelValues("in").Add(float64(n))
}

func (m *Metrics) setWindow(n int64) {
	if m == nil {
		return
	}
	m.readWindow.Set(float64(n))
}
