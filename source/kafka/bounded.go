package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"ktail/record"
)

type limited struct {
	Sequence
	left int
}

// Limit ends seq with io.EOF after n records. n <= 0 means unbounded.
func Limit(seq Sequence, n int) Sequence {
	if n <= 0 {
		return seq
	}
	return &limited{Sequence: seq, left: n}
}

func (l *limited) Next(ctx context.Context) (record.Record, error) {
	if l.left <= 0 {
		return record.Record{}, io.EOF
	}
	r, err := l.Sequence.Next(ctx)
	if err == nil {
		l.left--
	}
	return r, err
}

type idle struct {
	Sequence
	timeout time.Duration
}

// IdleTimeout ends seq with io.EOF when no record arrives within d.
// d <= 0 means wait forever.
func IdleTimeout(seq Sequence, d time.Duration) Sequence {
	if d <= 0 {
		return seq
	}
	return &idle{Sequence: seq, timeout: d}
}

func (i *idle) Next(ctx context.Context) (record.Record, error) {
	tctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	r, err := i.Sequence.Next(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return record.Record{}, io.EOF
	}
	return r, err
}
