package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsbroker_sends_total",
			Help: "Gateway send attempts by outcome and ingress",
		},
		[]string{"status", "source"}, // sent|rejected|failed , http|cli|kafka|codes
	)

	SendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smsbroker_send_duration_seconds",
			Help:    "Wall time of a single gateway POST",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)
)

// MustRegister registers the collectors once per registerer; repeated
// calls against the same registerer are ignored.
func MustRegister(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{SendsTotal, SendDuration} {
		if err := r.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}
