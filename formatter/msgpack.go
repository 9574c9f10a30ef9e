package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"ktail/record"
)

// MsgpackFormatter decodes msgpack payloads and writes them as JSON lines.
type MsgpackFormatter struct{}

func (MsgpackFormatter) Init(Properties) error { return nil }

func (MsgpackFormatter) Format(r record.Record, w io.Writer) error {
	var v any
	if err := msgpack.Unmarshal(r.Value, &v); err != nil {
		return fmt.Errorf("offset %d: decode msgpack: %w", r.Offset, err)
	}
	out, err := json.Marshal(jsonSafe(v))
	if err != nil {
		return fmt.Errorf("offset %d: encode json: %w", r.Offset, err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func (MsgpackFormatter) Close() error { return nil }

// jsonSafe rewrites maps keyed by non-strings, which msgpack allows and
// encoding/json rejects.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonSafe(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = jsonSafe(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = jsonSafe(val)
		}
		return t
	}
	return v
}

func init() {
	Register("msgpack", func() (MessageFormatter, error) { return MsgpackFormatter{}, nil })
}
