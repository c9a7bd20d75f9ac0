package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMustRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	MustRegister(reg)

	SendsTotal.WithLabelValues("sent", "cli").Inc()
	SendDuration.WithLabelValues("sent").Observe(0.2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{"smsbroker_sends_total", "smsbroker_send_duration_seconds"} {
		if !names[n] {
			t.Fatalf("metric %s not gathered", n)
		}
	}
}
