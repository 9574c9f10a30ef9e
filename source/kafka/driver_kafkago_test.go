package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	segkafka "github.com/segmentio/kafka-go"
)

type fakeReader struct {
	msgs      []segkafka.Message
	closed    bool // FetchMessage returns io.EOF once msgs are drained
	fetchErr  error
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (segkafka.Message, error) {
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		return m, nil
	}
	switch {
	case f.fetchErr != nil:
		return segkafka.Message{}, f.fetchErr
	case f.closed:
		return segkafka.Message{}, io.EOF
	}
	<-ctx.Done()
	return segkafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...segkafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func kafkaGoMessages(vals ...string) []segkafka.Message {
	out := make([]segkafka.Message, len(vals))
	for i, v := range vals {
		out[i] = segkafka.Message{Topic: "orders", Partition: 2, Offset: int64(10 + i), Value: []byte(v)}
	}
	return out
}

func TestKafkaGoSequence_DeliversInOrderAndCommitsOnAck(t *testing.T) {
	r := &fakeReader{msgs: kafkaGoMessages("a", "bb", "ccc"), closed: true}
	seq := &kafkaGoSequence{r: r}
	ctx := context.Background()

	for i, want := range []string{"a", "bb", "ccc"} {
		rec, err := seq.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if string(rec.Value) != want || rec.Offset != int64(10+i) || rec.Partition != 2 {
			t.Fatalf("record %d: got %+v", i, rec)
		}
		// the middle record is never acknowledged
		if i != 1 {
			seq.Ack()
		}
	}
	seq.Ack() // no record outstanding: no-op

	if len(r.committed) != 2 || r.committed[0] != 10 || r.committed[1] != 12 {
		t.Fatalf("want commits [10 12], got %v", r.committed)
	}
	if _, err := seq.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestKafkaGoSequence_NextHonoursCancel(t *testing.T) {
	seq := &kafkaGoSequence{r: &fakeReader{}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := seq.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline error, got %v", err)
	}
}

func TestKafkaGoSequence_ReaderErrorSurfaces(t *testing.T) {
	boom := errors.New("group coordinator unavailable")
	seq := &kafkaGoSequence{r: &fakeReader{fetchErr: boom}}
	if _, err := seq.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want reader error, got %v", err)
	}
}

func TestFromKafkaGo_CopiesHeaders(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	rec := fromKafkaGo(segkafka.Message{
		Topic: "orders", Partition: 1, Offset: 5, Key: []byte("k"), Value: []byte("v"), Time: ts,
		Headers: []segkafka.Header{{Key: "h1", Value: []byte("x")}, {Key: "h1", Value: []byte("y")}},
	})
	if rec.Topic != "orders" || rec.Partition != 1 || rec.Offset != 5 || !rec.Timestamp.Equal(ts) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Headers) != 2 || string(rec.Headers[1].Value) != "y" {
		t.Fatalf("unexpected headers %+v", rec.Headers)
	}
}
