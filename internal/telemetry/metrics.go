package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ktail/internal/logging"
)

// Metrics counts what the consumption loop does. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Records       prometheus.Counter
	Bytes         prometheus.Counter
	FormatErrors  prometheus.Counter
	Subscriptions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ktail", Name: "records_total",
			Help: "Records handed to the formatter.",
		}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ktail", Name: "record_bytes_total",
			Help: "Payload bytes handed to the formatter.",
		}),
		FormatErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ktail", Name: "format_errors_total",
			Help: "Records the formatter failed on.",
		}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktail", Name: "subscriptions_total",
			Help: "Subscription attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Records, m.Bytes, m.FormatErrors, m.Subscriptions)
	return m
}

func (m *Metrics) Record(n int) {
	if m == nil {
		return
	}
	m.Records.Inc()
	m.Bytes.Add(float64(n))
}

func (m *Metrics) FormatError() {
	if m != nil {
		m.FormatErrors.Inc()
	}
}

func (m *Metrics) Subscribed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Subscriptions.WithLabelValues(result).Inc()
}

// Expose serves /metrics for g on addr until ctx is done.
func Expose(ctx context.Context, addr string, g prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Warn("metrics server", "addr", addr, "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
}
