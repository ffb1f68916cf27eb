// Package metrics exposes the Prometheus instrumentation the HTTP surface
// and broadcast pipeline report through.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and histograms emitted by the webhook
// handlers and the broadcast engine.
type Metrics struct {
	inboundTotal     *prometheus.CounterVec
	outboundTotal    *prometheus.CounterVec
	webhookLatency   *prometheus.HistogramVec
	broadcastSeconds prometheus.Histogram
	broadcastRecips  *prometheus.CounterVec
	clicksTotal      prometheus.Counter
}

// New registers and returns the messaging metrics. A nil Registerer falls
// back to the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctuary",
			Subsystem: "sms",
			Name:      "inbound_total",
			Help:      "Total inbound SMS webhook deliveries by routed intent.",
		}, []string{"intent"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctuary",
			Subsystem: "sms",
			Name:      "outbound_total",
			Help:      "Total outbound sends by initial delivery status.",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sanctuary",
			Subsystem: "sms",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"webhook"}),
		broadcastSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sanctuary",
			Subsystem: "broadcast",
			Name:      "fanout_seconds",
			Help:      "Wall-clock duration of a broadcast fan-out run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		broadcastRecips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctuary",
			Subsystem: "broadcast",
			Name:      "recipients_total",
			Help:      "Recipients attempted by a broadcast, by outcome.",
		}, []string{"outcome"}),
		clicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sanctuary",
			Subsystem: "links",
			Name:      "clicks_total",
			Help:      "Total short-link redirects served.",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency, m.broadcastSeconds, m.broadcastRecips, m.clicksTotal)
	return m
}

func (m *Metrics) ObserveInbound(intent string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveWebhookLatency(webhook string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(webhook).Observe(seconds)
}

func (m *Metrics) ObserveBroadcastDuration(seconds float64) {
	if m == nil {
		return
	}
	m.broadcastSeconds.Observe(seconds)
}

func (m *Metrics) ObserveBroadcastRecipient(outcome string) {
	if m == nil {
		return
	}
	m.broadcastRecips.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveClick() {
	if m == nil {
		return
	}
	m.clicksTotal.Inc()
}
