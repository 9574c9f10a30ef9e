package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"ktail/internal/config"
	"ktail/internal/logging"
	"ktail/record"
)

// FranzDriver consumes through twmb/franz-go.
type FranzDriver struct{}

// fetchPoller is the part of *kgo.Client the sequence uses.
type fetchPoller interface {
	PollFetches(ctx context.Context) kgo.Fetches
	MarkCommitRecords(rs ...*kgo.Record)
	CommitMarkedOffsets(ctx context.Context) error
	Close()
}

type franzSequence struct {
	cl   fetchPoller
	buf  []*kgo.Record
	err  error // surfaced once buf is drained
	last *kgo.Record
}

func franzOpts(cfg Config) []kgo.Opt {
	sub := cfg.Subscription
	reset := kgo.NewOffset().AtEnd()
	if sub.OffsetReset == config.Earliest {
		reset = kgo.NewOffset().AtStart()
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(sub.GroupID),
		kgo.ConsumeTopics(sub.Topic),
		kgo.ConsumeResetOffset(reset),
		kgo.FetchMaxPartitionBytes(int32(sub.FetchSize)),
		kgo.Dialer(newDialer(cfg).DialContext),
		// commit only what the pipeline acknowledged
		kgo.AutoCommitMarks(),
	}
	if cfg.SASLUser != "" {
		opts = append(opts, kgo.SASL(plain.Auth{User: cfg.SASLUser, Pass: cfg.SASLPass}.AsMechanism()))
	}
	return opts
}

func (FranzDriver) Subscribe(ctx context.Context, cfg Config) (Sequence, error) {
	cl, err := kgo.NewClient(franzOpts(cfg)...)
	if err != nil {
		return nil, err
	}
	topic := cfg.Subscription.Topic
	if err := franzCheckTopic(ctx, cl, topic); err != nil {
		cl.Close()
		return nil, err
	}
	logging.L().Info("franz-driver: subscribed", "topic", topic, "group", cfg.Subscription.GroupID)
	return &franzSequence{cl: cl}, nil
}

func franzCheckTopic(ctx context.Context, cl *kgo.Client, topic string) error {
	req := kmsg.NewPtrMetadataRequest()
	rt := kmsg.NewMetadataRequestTopic()
	rt.Topic = kmsg.StringPtr(topic)
	req.Topics = append(req.Topics, rt)
	resp, err := req.RequestWith(ctx, cl)
	if err != nil {
		return err
	}
	if len(resp.Topics) == 0 {
		return fmt.Errorf("topic %q: %w", topic, kerr.UnknownTopicOrPartition)
	}
	if err := kerr.ErrorForCode(resp.Topics[0].ErrorCode); err != nil {
		return fmt.Errorf("topic %q: %w", topic, err)
	}
	return nil
}

// Next hands out every record of a poll before any error the same poll
// reported.
func (s *franzSequence) Next(ctx context.Context) (record.Record, error) {
	for len(s.buf) == 0 {
		if s.err != nil {
			err := s.err
			s.err = nil
			return record.Record{}, err
		}
		fetches := s.cl.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return record.Record{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return record.Record{}, err
		}
		var errs []error
		fetches.EachError(func(t string, p int32, err error) {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", t, p, err))
		})
		s.err = errors.Join(errs...)
		s.buf = fetches.Records()
	}
	r := s.buf[0]
	s.buf[0] = nil
	s.buf = s.buf[1:]
	s.last = r
	return fromFranz(r), nil
}

func (s *franzSequence) Ack() {
	if s.last == nil {
		return
	}
	s.cl.MarkCommitRecords(s.last)
	s.last = nil
}

// Close commits marked offsets and leaves the group.
func (s *franzSequence) Close() error {
	ctx := context.Background()
	if err := s.cl.CommitMarkedOffsets(ctx); err != nil {
		logging.L().Warn("franz-driver: final commit", "err", err)
	}
	s.cl.Close()
	return nil
}

func fromFranz(r *kgo.Record) record.Record {
	out := record.Record{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	}
	for _, h := range r.Headers {
		out.Headers = append(out.Headers, record.Header{Key: h.Key, Value: h.Value})
	}
	return out
}
