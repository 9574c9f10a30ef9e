package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counts(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.Record(3)
	m.Record(4)
	m.FormatError()
	m.Subscribed(nil)
	m.Subscribed(errors.New("unreachable"))

	if got := testutil.ToFloat64(m.Records); got != 2 {
		t.Fatalf("records: %v", got)
	}
	if got := testutil.ToFloat64(m.Bytes); got != 7 {
		t.Fatalf("bytes: %v", got)
	}
	if got := testutil.ToFloat64(m.FormatErrors); got != 1 {
		t.Fatalf("format errors: %v", got)
	}
	if got := testutil.ToFloat64(m.Subscriptions.WithLabelValues("error")); got != 1 {
		t.Fatalf("failed subscriptions: %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Record(1)
	m.FormatError()
	m.Subscribed(nil)
}
