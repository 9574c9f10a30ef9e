package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/IBM/sarama"

	"ktail/internal/config"
	"ktail/internal/logging"
	"ktail/record"
)

type SaramaDriver struct{}

type delivery struct {
	msg  *sarama.ConsumerMessage
	sess sarama.ConsumerGroupSession
}

type saramaSequence struct {
	topic string
	cl    sarama.Client
	group sarama.ConsumerGroup

	ctx    context.Context
	cancel context.CancelFunc

	deliveries chan delivery
	done       chan struct{}
	err        error // set before done is closed

	last      *delivery
	closeOnce sync.Once
	closeErr  error
}

func saramaConfig(cfg Config) (*sarama.Config, error) {
	ver, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	sub := cfg.Subscription
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.ClientID = cfg.ClientID
	sc.Consumer.Return.Errors = true
	sc.Consumer.Fetch.Default = int32(sub.FetchSize)
	if int32(sub.FetchSize) > sc.Consumer.Fetch.Max && sc.Consumer.Fetch.Max > 0 {
		sc.Consumer.Fetch.Max = int32(sub.FetchSize)
	}
	sc.Consumer.Offsets.AutoCommit.Enable = sub.AutoCommit
	switch sub.OffsetReset {
	case config.Earliest:
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	// sarama has no socket buffer knob; route every broker dial through ours.
	sc.Net.Proxy.Enable = true
	sc.Net.Proxy.Dialer = newDialer(cfg)
	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = cfg.SASLUser, cfg.SASLPass
	}
	return sc, sc.Validate()
}

func (SaramaDriver) Subscribe(ctx context.Context, cfg Config) (Sequence, error) {
	sc, err := saramaConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("sarama config: %w", err)
	}

	// sarama's bootstrap takes no context; run it aside so a cancel is not
	// held up by broker timeouts.
	type result struct {
		cl    sarama.Client
		group sarama.ConsumerGroup
		parts int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		r.cl, r.group, r.parts, r.err = saramaConnect(cfg, sc)
		done <- r
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		go func() {
			if late := <-done; late.err == nil {
				_ = late.group.Close()
				_ = late.cl.Close()
			}
		}()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	logging.L().Info("sarama-driver: subscribed", "topic", cfg.Subscription.Topic, "group", cfg.Subscription.GroupID, "partitions", r.parts)

	s := newSaramaSequence(cfg.Subscription.Topic, r.cl, r.group)
	go s.logErrors()
	go s.consume()
	return s, nil
}

func saramaConnect(cfg Config, sc *sarama.Config) (sarama.Client, sarama.ConsumerGroup, int, error) {
	cl, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return nil, nil, 0, err
	}
	topic := cfg.Subscription.Topic
	parts, err := cl.Partitions(topic)
	if err == nil && len(parts) == 0 {
		err = sarama.ErrUnknownTopicOrPartition
	}
	if err != nil {
		_ = cl.Close()
		return nil, nil, 0, fmt.Errorf("topic %q: %w", topic, err)
	}
	group, err := sarama.NewConsumerGroupFromClient(cfg.Subscription.GroupID, cl)
	if err != nil {
		_ = cl.Close()
		return nil, nil, 0, err
	}
	return cl, group, len(parts), nil
}

func newSaramaSequence(topic string, cl sarama.Client, group sarama.ConsumerGroup) *saramaSequence {
	ctx, cancel := context.WithCancel(context.Background())
	return &saramaSequence{
		topic:      topic,
		cl:         cl,
		group:      group,
		ctx:        ctx,
		cancel:     cancel,
		deliveries: make(chan delivery),
		done:       make(chan struct{}),
	}
}

// consume rejoins the group after every rebalance until the sequence closes.
func (s *saramaSequence) consume() {
	defer close(s.done)
	for {
		if err := s.group.Consume(s.ctx, []string{s.topic}, s); err != nil {
			if s.ctx.Err() == nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
				s.err = err
			}
			return
		}
		if s.ctx.Err() != nil {
			return
		}
	}
}

func (s *saramaSequence) logErrors() {
	for err := range s.group.Errors() {
		logging.L().Warn("sarama-driver: consumer error", "err", err)
	}
}

func (s *saramaSequence) Next(ctx context.Context) (record.Record, error) {
	select {
	case d := <-s.deliveries:
		s.last = &d
		return fromSarama(d.msg), nil
	case <-s.done:
		if s.err != nil {
			return record.Record{}, s.err
		}
		return record.Record{}, io.EOF
	case <-ctx.Done():
		return record.Record{}, ctx.Err()
	}
}

func (s *saramaSequence) Ack() {
	if s.last == nil {
		return
	}
	s.last.sess.MarkMessage(s.last.msg, "")
	s.last = nil
}

func (s *saramaSequence) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		gerr := s.group.Close()
		<-s.done
		cerr := s.cl.Close()
		s.closeErr = errors.Join(gerr, cerr)
	})
	return s.closeErr
}

/* ───────── sarama.ConsumerGroupHandler ───────── */

func (*saramaSequence) Setup(sess sarama.ConsumerGroupSession) error {
	logging.L().Debug("sarama-driver: session started", "member", sess.MemberID(), "generation", sess.GenerationID(), "claims", sess.Claims())
	return nil
}

func (*saramaSequence) Cleanup(sess sarama.ConsumerGroupSession) error {
	logging.L().Debug("sarama-driver: session ended", "generation", sess.GenerationID())
	return nil
}

func (s *saramaSequence) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			select {
			case s.deliveries <- delivery{msg: msg, sess: sess}:
			case <-sess.Context().Done():
				return nil
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}

func fromSarama(m *sarama.ConsumerMessage) record.Record {
	r := record.Record{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Timestamp,
	}
	if len(m.Headers) > 0 {
		r.Headers = make([]record.Header, 0, len(m.Headers))
		for _, h := range m.Headers {
			if h == nil {
				continue
			}
			r.Headers = append(r.Headers, record.Header{Key: string(h.Key), Value: h.Value})
		}
	}
	return r
}
