package infra

import (
	"context"
	"fmt"
	"strconv"

	"endpoint-resolver/resolver/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics reúne as métricas Prometheus do resolvedor.
type Metrics struct {
	// Portão de admissão
	GateCapacity       prometheus.Gauge
	GateInFlight       prometheus.Gauge
	GateWaiting        prometheus.Gauge
	GateAbandonedTotal prometheus.Counter
	GateWaitSeconds    prometheus.Histogram

	// Lookups
	LookupsTotal         *prometheus.CounterVec
	LookupAddrsTotal     prometheus.Counter
	LookupDurationSecond *prometheus.HistogramVec
}

// NewMetrics cria as definições de métricas. Nada é registrado aqui.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "endpoint_resolver"
	}

	return &Metrics{
		GateCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "capacity",
			Help:      "Maximum number of concurrent gated lookups",
		}),
		GateInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "in_flight",
			Help:      "Permits currently held by running lookups",
		}),
		GateWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "waiting",
			Help:      "Lookups queued for a permit",
		}),
		GateAbandonedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "abandoned_total",
			Help:      "Permit requests abandoned because the caller context ended",
		}),
		GateWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a permit",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "total",
			Help:      "Name lookups by outcome",
		}, []string{"result", "gated"}),
		LookupAddrsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "addresses_total",
			Help:      "Addresses returned by successful lookups",
		}),
		LookupDurationSecond: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "duration_seconds",
			Help:      "Name lookup latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
}

// Register registra todas as métricas em registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.GateCapacity,
		m.GateInFlight,
		m.GateWaiting,
		m.GateAbandonedTotal,
		m.GateWaitSeconds,
		m.LookupsTotal,
		m.LookupAddrsTotal,
		m.LookupDurationSecond,
	} {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}

// Record implementa domain.StatsStore.
func (m *Metrics) Record(_ context.Context, ev domain.LookupEvent) error {
	result := "resolved"
	if !ev.Resolved {
		result = "unknown_host"
	}
	m.LookupsTotal.WithLabelValues(result, strconv.FormatBool(ev.Gated)).Inc()
	m.LookupDurationSecond.WithLabelValues(result).Observe(ev.Elapsed.Seconds())
	if ev.Resolved {
		m.LookupAddrsTotal.Add(float64(ev.Addrs))
	}
	return nil
}

// NewRegistry cria um registry separado do global, com métricas do runtime Go e do processo.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}
