package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ktail/internal/cli"
	"ktail/internal/engine"
	"ktail/source/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	kafka.Register("sarama", func() kafka.Adapter { return &kafka.SaramaDriver{} })
	kafka.Register("kafka-go", func() kafka.Adapter { return &kafka.KafkaGoDriver{} })
	kafka.Register("franz", func() kafka.Adapter { return &kafka.FranzDriver{} })

	code := cli.Execute(ctx, engine.Run, os.Args[1:], nil, os.Stderr)
	stop()
	os.Exit(code)
}
