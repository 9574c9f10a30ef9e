package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"ktail/formatter"
	"ktail/internal/config"
	"ktail/internal/logging"
	"ktail/internal/pipeline"
	"ktail/internal/telemetry"
	"ktail/internal/transport"
	"ktail/sink"
	"ktail/sink/file"
	"ktail/sink/stdout"
	"ktail/source/kafka"
)

// Request is one validated invocation, as assembled by the command line.
type Request struct {
	Subscription config.Subscription
	Formatter    string
	Properties   formatter.Properties

	SettingsPath string
	Driver       string // overrides Settings.Driver when set
	Discovery    string // overrides Settings.Discovery when set
	LogLevel     string // overrides Settings.Log.Level when set
	Output       string // "" or "-" = stdout
	Truncate     bool   // empty Output before writing instead of appending
	MaxRecords   int
	IdleTimeout  time.Duration

	Stdout io.Writer // nil = process stdout
}

// Bootstrap wires settings, logging, the driver, the output sink and the
// formatter. Nothing here talks to the cluster.
func Bootstrap(ctx context.Context, req Request) (_ *Engine, err error) {
	// 1. settings + logging
	st, err := config.LoadSettings(req.SettingsPath)
	if err != nil {
		return nil, err
	}
	override(&st.Driver, req.Driver)
	override(&st.Discovery, req.Discovery)
	override(&st.Log.Level, req.LogLevel)

	logging.Configure(logging.Options{Level: st.Log.Level, JSON: st.Log.JSON})
	if logging.ParseLevel(st.Log.Level) <= slog.LevelDebug {
		sarama.Logger = logging.StdLogger(slog.LevelDebug)
	}

	// 2. driver, seeded through broker discovery
	src, err := kafka.NewAdapter(st.Driver)
	if err != nil {
		return nil, err
	}
	src = kafka.WithDiscovery(src, st.Discovery, st.ZKSessionTimeout)

	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	// 3. sink
	out, err := openSink(req)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = out.Close() })

	// 4. formatter
	mf, err := formatter.Load(req.Formatter, req.Properties)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = mf.Close() })

	// 5. health, then metrics
	var health *transport.Server
	if st.HealthAddr != "" {
		health, err = transport.StartServer(st.HealthAddr)
		if err != nil {
			return nil, fmt.Errorf("health server: %w", err)
		}
		logging.L().Info("health server listening", "addr", health.Addr().String())
	}
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	if st.MetricsAddr != "" {
		telemetry.Expose(ctx, st.MetricsAddr, reg)
	}

	runner := pipeline.NewRunner(src, mf, out)
	runner.SetMetrics(metrics)
	runner.SetMaxRecords(req.MaxRecords)
	runner.SetIdleTimeout(req.IdleTimeout)

	return &Engine{
		settings: st,
		sub:      req.Subscription,
		runner:   runner,
		sink:     out,
		health:   health,
	}, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func openSink(req Request) (sink.Adapter, error) {
	name, cfg := "stdout", any(stdout.Config{Out: req.Stdout})
	if req.Output != "" && req.Output != "-" {
		name, cfg = "file", file.Config{Path: req.Output, Truncate: req.Truncate}
	}
	out, err := sink.NewAdapter(name)
	if err != nil {
		return nil, err
	}
	if err := out.Configure(cfg); err != nil {
		return nil, fmt.Errorf("output %s: %w", name, err)
	}
	return out, nil
}
