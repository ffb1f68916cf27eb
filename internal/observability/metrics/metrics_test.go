package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveInbound("opt_in")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("sms", 0.2)
	m.ObserveBroadcastDuration(1.5)
	m.ObserveBroadcastRecipient("sent")
	m.ObserveClick()
}

func TestMetricsDefaultRegistry(t *testing.T) {
	m := New(nil)
	if m == nil {
		t.Fatal("expected metrics instance")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveInbound("opt_in")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("sms", 0.1)
	m.ObserveBroadcastDuration(0.1)
	m.ObserveBroadcastRecipient("failed")
	m.ObserveClick()
}
