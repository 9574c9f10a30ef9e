package kafka

import (
	"context"

	"ktail/internal/config"
	"ktail/record"
)

// Config is everything a driver needs to join the group and subscribe.
type Config struct {
	Subscription config.Subscription
	Brokers      []string

	Version  string
	ClientID string
	TLSEn    bool
	SASLUser string
	SASLPass string
}

// Sequence is a forward-only, potentially unbounded stream of records.
// Next blocks until a record is available, the stream ends (io.EOF) or ctx
// is done. Ack confirms the record last returned by Next was handled; only
// acknowledged records are committed.
type Sequence interface {
	Next(ctx context.Context) (record.Record, error)
	Ack()
	Close() error
}

// Adapter opens a Sequence for cfg. Subscribe fails fast when the cluster
// is unreachable or the topic does not exist; it does not retry.
type Adapter interface {
	Subscribe(ctx context.Context, cfg Config) (Sequence, error)
}
