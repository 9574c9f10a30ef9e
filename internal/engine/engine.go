package engine

import (
	"context"

	"ktail/internal/config"
	"ktail/internal/logging"
	"ktail/internal/pipeline"
	"ktail/internal/transport"
	"ktail/sink"
	"ktail/source/kafka"
)

type Engine struct {
	settings config.Settings
	sub      config.Subscription
	runner   *pipeline.Runner
	sink     sink.Adapter
	health   *transport.Server
}

// Run streams until the input ends, ctx is cancelled or a record cannot be
// formatted. The output is released on every path.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.sink.Close(); err != nil {
			logging.L().Warn("engine: close output", "err", err)
		}
		if e.health != nil {
			e.health.Stop()
		}
	}()
	if e.health != nil {
		e.runner.OnSubscribed(func() { e.health.SetServing(true) })
	}

	logging.L().Info("subscribing",
		"topic", e.sub.Topic, "group", e.sub.GroupID,
		"driver", e.settings.Driver, "reset", e.sub.OffsetReset.String())
	return e.runner.Run(ctx, kafka.Config{
		Subscription: e.sub,
		Version:      e.settings.Kafka.Version,
		ClientID:     e.settings.Kafka.ClientID,
		TLSEn:        e.settings.Kafka.TLSEn,
		SASLUser:     e.settings.Kafka.SASLUser,
		SASLPass:     e.settings.Kafka.SASLPass,
	})
}

// Run is the whole invocation: bootstrap, then stream.
func Run(ctx context.Context, req Request) error {
	e, err := Bootstrap(ctx, req)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}
