package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opExtract   = "extract_bill"
	opInterpret = "interpret_command"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsmart_llm_calls_total",
		Help: "Inference service calls by provider, operation, and outcome.",
	}, []string{"provider", "operation", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitsmart_llm_call_duration_seconds",
		Help:    "Inference service call latency by provider and operation.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"provider", "operation"})
)

func observeCall(provider, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	callsTotal.WithLabelValues(provider, op, outcome).Inc()
	callDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}
