package host

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"

	"github.com/srediag/plugin-crypto/internal/handle"
)

// metrics carries the runtime's prometheus collectors plus optional otel
// mirrors. Collectors always exist so call sites stay unconditional; they
// are only registered when the config names a Registerer.
type metrics struct {
	signTotal      prometheus.Counter
	verifyTotal    prometheus.Counter
	verifyFailures prometheus.Counter
	stagedBytes    prometheus.Counter

	otelSign   metric.Int64Counter
	otelVerify metric.Int64Counter
}

func newMetrics(conf Config, table *handle.Table) (*metrics, error) {
	m := &metrics{
		signTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugin_crypto_sign_operations_total",
			Help: "Total number of finalized signing operations.",
		}),
		verifyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugin_crypto_verify_operations_total",
			Help: "Total number of verification queries.",
		}),
		verifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugin_crypto_verify_failures_total",
			Help: "Total number of verification queries that did not match.",
		}),
		stagedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugin_crypto_staged_bytes_total",
			Help: "Total bytes staged into array outputs.",
		}),
	}
	if conf.Registerer != nil {
		conf.Registerer.MustRegister(m.signTotal, m.verifyTotal, m.verifyFailures, m.stagedBytes)
		for _, k := range handle.Kinds() {
			k := k
			conf.Registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name:        "plugin_crypto_live_handles",
				Help:        "Currently live handles by resource kind.",
				ConstLabels: prometheus.Labels{"kind": k.String()},
			}, func() float64 { return float64(table.KindLen(k)) }))
		}
	}
	if conf.Meter != nil {
		var err error
		if m.otelSign, err = conf.Meter.Int64Counter("plugin_crypto.sign.operations"); err != nil {
			return nil, err
		}
		if m.otelVerify, err = conf.Meter.Int64Counter("plugin_crypto.verify.operations"); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) recordSign(ctx context.Context) {
	m.signTotal.Inc()
	if m.otelSign != nil {
		m.otelSign.Add(ctx, 1)
	}
}

func (m *metrics) recordVerify(ctx context.Context, ok bool) {
	m.verifyTotal.Inc()
	if !ok {
		m.verifyFailures.Inc()
	}
	if m.otelVerify != nil {
		m.otelVerify.Add(ctx, 1)
	}
}

func (m *metrics) recordStaged(n int) {
	m.stagedBytes.Add(float64(n))
}
