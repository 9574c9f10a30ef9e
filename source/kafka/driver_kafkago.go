package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"ktail/internal/config"
	"ktail/internal/logging"
	"ktail/record"
)

// KafkaGoDriver consumes through segmentio/kafka-go's group Reader.
type KafkaGoDriver struct{}

// messageReader is the part of *kafka.Reader the sequence uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (segkafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...segkafka.Message) error
	Close() error
}

type kafkaGoSequence struct {
	r    messageReader
	last *segkafka.Message
}

func kafkaGoDialer(cfg Config) *segkafka.Dialer {
	bd := newDialer(cfg)
	d := &segkafka.Dialer{
		ClientID: cfg.ClientID,
		Timeout:  bd.Timeout,
		DialFunc: bd.DialContext,
	}
	if cfg.SASLUser != "" {
		d.SASLMechanism = plain.Mechanism{Username: cfg.SASLUser, Password: cfg.SASLPass}
	}
	return d
}

func (KafkaGoDriver) Subscribe(ctx context.Context, cfg Config) (Sequence, error) {
	sub := cfg.Subscription
	dialer := kafkaGoDialer(cfg)
	if err := kafkaGoCheckTopic(ctx, dialer, cfg.Brokers, sub.Topic); err != nil {
		return nil, err
	}

	start := segkafka.LastOffset
	if sub.OffsetReset == config.Earliest {
		start = segkafka.FirstOffset
	}
	log := logging.L().With("driver", "kafka-go")
	rc := segkafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        sub.GroupID,
		Topic:          sub.Topic,
		Dialer:         dialer,
		MinBytes:       1,
		MaxBytes:       sub.FetchSize,
		StartOffset:    start,
		CommitInterval: time.Second,
		Logger: segkafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: segkafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Warn(fmt.Sprintf(msg, args...))
		}),
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	log.Info("kafka-go-driver: subscribed", "topic", sub.Topic, "group", sub.GroupID)
	return &kafkaGoSequence{r: segkafka.NewReader(rc)}, nil
}

func kafkaGoCheckTopic(ctx context.Context, d *segkafka.Dialer, brokers []string, topic string) error {
	var errs []error
	for _, b := range brokers {
		conn, err := d.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parts, err := conn.ReadPartitions(topic)
		conn.Close()
		if err == nil && len(parts) == 0 {
			err = segkafka.UnknownTopicOrPartition
		}
		if err != nil {
			return fmt.Errorf("topic %q: %w", topic, err)
		}
		return nil
	}
	return fmt.Errorf("no reachable broker: %w", errors.Join(errs...))
}

func (s *kafkaGoSequence) Next(ctx context.Context) (record.Record, error) {
	m, err := s.r.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return record.Record{}, ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return record.Record{}, io.EOF
		}
		return record.Record{}, err
	}
	s.last = &m
	return fromKafkaGo(m), nil
}

// Ack queues the commit; the reader flushes it every CommitInterval.
func (s *kafkaGoSequence) Ack() {
	if s.last == nil {
		return
	}
	if err := s.r.CommitMessages(context.Background(), *s.last); err != nil {
		logging.L().Warn("kafka-go-driver: commit", "offset", s.last.Offset, "err", err)
	}
	s.last = nil
}

func (s *kafkaGoSequence) Close() error { return s.r.Close() }

func fromKafkaGo(m segkafka.Message) record.Record {
	r := record.Record{
		Topic:     m.Topic,
		Partition: int32(m.Partition),
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
	}
	for _, h := range m.Headers {
		r.Headers = append(r.Headers, record.Header{Key: h.Key, Value: h.Value})
	}
	return r
}
