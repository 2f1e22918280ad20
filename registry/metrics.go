package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once
	metricsReg  *metrics
)

// metrics holds the registry's Prometheus instruments. Registered on the
// default registerer the first time a Registry touches them.
type metrics struct {
	Registered   prometheus.Gauge
	CommandsSent *prometheus.CounterVec
	Responses    *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
}

// hostMetrics returns the process-wide metrics set, creating it on first use.
func hostMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsReg = newMetrics()
	})
	return metricsReg
}

func newMetrics() *metrics {
	m := &metrics{}

	m.Registered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exthost_registered_extensions",
		Help: "Number of currently registered extension sessions",
	})

	m.CommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exthost_commands_sent_total",
		Help: "Commands accepted for delivery to an extension",
	}, []string{"extension"})

	m.Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exthost_responses_total",
		Help: "Responses forwarded from extensions onto the event stream",
	}, []string{"extension", "type"})

	m.SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exthost_send_failures_total",
		Help: "Commands rejected because the extension was missing or closed",
	}, []string{"extension"})

	return m
}
