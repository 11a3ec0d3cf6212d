package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "appointment_demo"

// ChatMetrics exposes counters/histograms for the chat session pipeline.
type ChatMetrics struct {
	submissionsTotal *prometheus.CounterVec
	rejectionsTotal  *prometheus.CounterVec
	assistantLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "submissions_total",
			Help:      "Resolved chat submissions by outcome",
		}, []string{"outcome"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "rejections_total",
			Help:      "Chat submissions rejected before reaching the assistant",
		}, []string{"reason"}),
		assistantLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "assistant_latency_seconds",
			Help:      "Latency of calls to the remote assistant endpoint",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.rejectionsTotal, m.assistantLatency)
	return m
}

func (m *ChatMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *ChatMetrics) ObserveLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.assistantLatency.WithLabelValues(status).Observe(seconds)
}

// WebchatMetrics tracks the browser demo transport.
type WebchatMetrics struct {
	activeSessions   prometheus.Gauge
	openConnections  prometheus.Gauge
	evictedSessions  prometheus.Counter
	rateLimitedTotal prometheus.Counter
}

func NewWebchatMetrics(reg prometheus.Registerer) *WebchatMetrics {
	m := &WebchatMetrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "webchat",
			Name:      "sessions_active",
			Help:      "Demo sessions currently held in memory",
		}),
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "webchat",
			Name:      "connections_open",
			Help:      "Open demo WebSocket connections",
		}),
		evictedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webchat",
			Name:      "sessions_evicted_total",
			Help:      "Idle demo sessions evicted from memory",
		}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webchat",
			Name:      "rate_limited_total",
			Help:      "Demo submissions refused by the per-client rate limit",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.activeSessions, m.openConnections, m.evictedSessions, m.rateLimitedTotal)
	return m
}

func (m *WebchatMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *WebchatMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.openConnections.Inc()
}

func (m *WebchatMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.openConnections.Dec()
}

func (m *WebchatMetrics) ObserveEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictedSessions.Add(float64(n))
}

func (m *WebchatMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
