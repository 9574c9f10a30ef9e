package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ktail/record"
)

// chanSequence yields whatever is sent on ch and blocks otherwise.
type chanSequence struct {
	ch     chan record.Record
	acks   int
	closed int
}

func (c *chanSequence) Next(ctx context.Context) (record.Record, error) {
	select {
	case r, ok := <-c.ch:
		if !ok {
			return record.Record{}, io.EOF
		}
		return r, nil
	case <-ctx.Done():
		return record.Record{}, ctx.Err()
	}
}
func (c *chanSequence) Ack()         { c.acks++ }
func (c *chanSequence) Close() error { c.closed++; return nil }

func TestLimit_EndsAfterN(t *testing.T) {
	src := &chanSequence{ch: make(chan record.Record, 3)}
	for _, v := range []string{"a", "b", "c"} {
		src.ch <- record.Record{Value: []byte(v)}
	}
	seq := Limit(src, 2)
	ctx := context.Background()
	for _, want := range []string{"a", "b"} {
		r, err := seq.Next(ctx)
		if err != nil || string(r.Value) != want {
			t.Fatalf("want %q, got %q (%v)", want, r.Value, err)
		}
		seq.Ack()
	}
	if _, err := seq.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF after limit, got %v", err)
	}
	if src.acks != 2 {
		t.Fatalf("acks must pass through, got %d", src.acks)
	}
	_ = seq.Close()
	if src.closed != 1 {
		t.Fatal("close must pass through")
	}
}

func TestLimit_ZeroIsUnbounded(t *testing.T) {
	src := &chanSequence{}
	if Limit(src, 0) != Sequence(src) {
		t.Fatal("Limit(0) must return the sequence unchanged")
	}
}

func TestIdleTimeout_EndsQuietStream(t *testing.T) {
	src := &chanSequence{ch: make(chan record.Record)}
	seq := IdleTimeout(src, 20*time.Millisecond)
	if _, err := seq.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF on idle stream, got %v", err)
	}
}

func TestIdleTimeout_ParentCancelIsNotEOF(t *testing.T) {
	src := &chanSequence{ch: make(chan record.Record)}
	seq := IdleTimeout(src, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := seq.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
