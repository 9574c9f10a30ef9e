package formatter

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
	"unicode/utf8"

	prettyjson "github.com/hokaccha/go-prettyjson"

	"ktail/record"
)

type jsonRecord struct {
	Topic     string       `json:"topic"`
	Partition int32        `json:"partition"`
	Offset    int64        `json:"offset"`
	Timestamp string       `json:"timestamp,omitempty"`
	Key       any          `json:"key"`
	Value     any          `json:"value"`
	Headers   []jsonHeader `json:"headers,omitempty"`
}

// Headers keep their wire order; keys may repeat.
type jsonHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// JSONFormatter writes each record, metadata included, as one JSON object.
// Payloads that are valid JSON are embedded as-is, UTF-8 text becomes a
// string and anything else is base64 encoded by encoding/json.
type JSONFormatter struct {
	pretty *prettyjson.Formatter
	buf    bytes.Buffer
}

func (f *JSONFormatter) Init(p Properties) error {
	pretty, err := p.Bool("pretty", false)
	if err != nil {
		return err
	}
	if !pretty {
		return nil
	}
	f.pretty, err = newPretty(p)
	return err
}

func (f *JSONFormatter) Format(r record.Record, w io.Writer) error {
	jr := jsonRecord{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       payload(r.Key),
		Value:     payload(r.Value),
	}
	if !r.Timestamp.IsZero() {
		jr.Timestamp = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if len(r.Headers) > 0 {
		jr.Headers = make([]jsonHeader, len(r.Headers))
		for i, h := range r.Headers {
			jr.Headers[i] = jsonHeader{Key: h.Key, Value: string(h.Value)}
		}
	}
	out, err := json.Marshal(jr)
	if err != nil {
		return err
	}
	if f.pretty != nil {
		if out, err = f.pretty.Format(out); err != nil {
			return err
		}
	}
	f.buf.Reset()
	f.buf.Write(out)
	f.buf.WriteByte('\n')
	_, err = f.buf.WriteTo(w)
	return err
}

func (f *JSONFormatter) Close() error { return nil }

func payload(b []byte) any {
	switch {
	case b == nil:
		return nil
	case json.Valid(b):
		return json.RawMessage(b)
	case utf8.Valid(b):
		return string(b)
	default:
		return b
	}
}

func init() {
	Register("json", func() (MessageFormatter, error) { return &JSONFormatter{}, nil })
}
