package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ktail/formatter"
	"ktail/internal/logging"
	"ktail/internal/telemetry"
	"ktail/sink"
	"ktail/source/kafka"
)

// Runner drives one subscription: every record the source yields is
// formatted into the sink, in order, one at a time.
//
// The runner owns the formatter it is given: Close is called exactly once
// when Run returns, whatever the reason.
type Runner struct {
	source    kafka.Adapter
	formatter formatter.MessageFormatter
	sink      sink.Adapter
	metrics   *telemetry.Metrics

	maxRecords int
	idle       time.Duration
	subscribed func()
}

func NewRunner(src kafka.Adapter, f formatter.MessageFormatter, out sink.Adapter) *Runner {
	return &Runner{source: src, formatter: f, sink: out}
}

func (r *Runner) SetMetrics(m *telemetry.Metrics) { r.metrics = m }
func (r *Runner) SetMaxRecords(n int)             { r.maxRecords = n }
func (r *Runner) SetIdleTimeout(d time.Duration)  { r.idle = d }

// OnSubscribed registers fn to run once the subscription is established.
func (r *Runner) OnSubscribed(fn func()) { r.subscribed = fn }

// Run returns nil when the sequence ends or ctx is cancelled, and the first
// error otherwise.
func (r *Runner) Run(ctx context.Context, cfg kafka.Config) (err error) {
	defer func() { err = r.finish(err) }()

	topic := cfg.Subscription.Topic
	seq, err := r.source.Subscribe(ctx, cfg)
	r.metrics.Subscribed(err)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &SubscriptionError{Op: "subscribe", Topic: topic, Err: err}
	}
	defer func() {
		if cerr := seq.Close(); cerr != nil {
			logging.L().Warn("pipeline: close subscription", "topic", topic, "err", cerr)
		}
	}()
	if r.subscribed != nil {
		r.subscribed()
	}

	seq = kafka.IdleTimeout(kafka.Limit(seq, r.maxRecords), r.idle)
	var n int
	for {
		rec, err := seq.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			logging.L().Info("pipeline: end of input", "topic", topic, "records", n)
			return nil
		case ctx.Err() != nil:
			logging.L().Info("pipeline: cancelled", "topic", topic, "records", n)
			return nil
		default:
			return &SubscriptionError{Op: "consume", Topic: topic, Err: err}
		}

		if err := r.formatter.Format(rec, r.sink); err != nil {
			r.metrics.FormatError()
			return &FormatError{Topic: rec.Topic, Partition: rec.Partition, Offset: rec.Offset, Err: err}
		}
		// an offset may only be committed once its output left the process
		if err := r.sink.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		seq.Ack()
		r.metrics.Record(len(rec.Value))
		n++
	}
}

// finish closes the formatter, then flushes whatever it wrote. A failure
// here only surfaces when the run itself succeeded.
func (r *Runner) finish(runErr error) error {
	cerr := r.formatter.Close()
	ferr := r.sink.Flush()
	if runErr != nil {
		if cerr != nil {
			logging.L().Warn("pipeline: formatter close", "err", cerr)
		}
		if ferr != nil {
			logging.L().Warn("pipeline: flush output", "err", ferr)
		}
		return runErr
	}
	if cerr != nil {
		return fmt.Errorf("formatter close: %w", cerr)
	}
	if ferr != nil {
		return fmt.Errorf("flush output: %w", ferr)
	}
	return nil
}
