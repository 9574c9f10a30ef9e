package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

type fakePoller struct {
	polls   []kgo.Fetches
	marked  []int64
	commits int
	closed  bool
}

func (f *fakePoller) PollFetches(ctx context.Context) kgo.Fetches {
	if len(f.polls) > 0 {
		fs := f.polls[0]
		f.polls = f.polls[1:]
		return fs
	}
	<-ctx.Done()
	return nil
}

func (f *fakePoller) MarkCommitRecords(rs ...*kgo.Record) {
	for _, r := range rs {
		f.marked = append(f.marked, r.Offset)
	}
}

func (f *fakePoller) CommitMarkedOffsets(context.Context) error { f.commits++; return nil }
func (f *fakePoller) Close()                                    { f.closed = true }

func fetch(err error, offsets ...int64) kgo.Fetches {
	recs := make([]*kgo.Record, len(offsets))
	for i, o := range offsets {
		recs[i] = &kgo.Record{Topic: "orders", Partition: 0, Offset: o, Value: []byte{byte('a' + i)}}
	}
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "orders",
		Partitions: []kgo.FetchPartition{{Partition: 0, Err: err, Records: recs}},
	}}}}
}

func TestFranzSequence_DrainsBufferAndMarksOnAck(t *testing.T) {
	p := &fakePoller{polls: []kgo.Fetches{fetch(nil, 0, 1), fetch(nil, 2)}}
	seq := &franzSequence{cl: p}
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		rec, err := seq.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if rec.Offset != i {
			t.Fatalf("want offset %d, got %d", i, rec.Offset)
		}
		if i != 1 {
			seq.Ack()
		}
	}
	seq.Ack()
	if len(p.marked) != 2 || p.marked[0] != 0 || p.marked[1] != 2 {
		t.Fatalf("want marks [0 2], got %v", p.marked)
	}
	if len(p.polls) != 0 {
		t.Fatal("every poll must be consumed")
	}

	if err := seq.Close(); err != nil || p.commits != 1 || !p.closed {
		t.Fatalf("close must commit marks and close the client: %v %d %v", err, p.commits, p.closed)
	}
}

func TestFranzSequence_RecordsBeforeFetchError(t *testing.T) {
	boom := errors.New("not leader for partition")
	p := &fakePoller{polls: []kgo.Fetches{fetch(boom, 7)}}
	seq := &franzSequence{cl: p}
	ctx := context.Background()

	rec, err := seq.Next(ctx)
	if err != nil || rec.Offset != 7 {
		t.Fatalf("record of the failing poll must come first: %+v %v", rec, err)
	}
	if _, err := seq.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("want fetch error, got %v", err)
	}
}

func TestFranzSequence_NextHonoursCancel(t *testing.T) {
	seq := &franzSequence{cl: &fakePoller{}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := seq.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline error, got %v", err)
	}
}

func TestFromFranz(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	rec := fromFranz(&kgo.Record{
		Topic: "orders", Partition: 3, Offset: 9, Key: []byte("k"), Value: []byte("v"), Timestamp: ts,
		Headers: []kgo.RecordHeader{{Key: "trace", Value: []byte("abc")}},
	})
	if rec.Topic != "orders" || rec.Partition != 3 || rec.Offset != 9 || string(rec.Key) != "k" || !rec.Timestamp.Equal(ts) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Headers) != 1 || rec.Headers[0].Key != "trace" || string(rec.Headers[0].Value) != "abc" {
		t.Fatalf("unexpected headers %+v", rec.Headers)
	}
}
