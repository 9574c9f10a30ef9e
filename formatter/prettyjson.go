package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	prettyjson "github.com/hokaccha/go-prettyjson"

	"ktail/record"
)

// PrettyJSONFormatter indents (and by default colors) JSON payloads.
// Payloads that are not JSON are written raw unless strict=true.
type PrettyJSONFormatter struct {
	pf     *prettyjson.Formatter
	strict bool
}

func newPretty(p Properties) (*prettyjson.Formatter, error) {
	pf := prettyjson.NewFormatter()
	color, err := p.Bool("color", true)
	if err != nil {
		return nil, err
	}
	pf.DisabledColor = !color
	if v, ok := p.Get("indent"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &PropertyValueError{Key: "indent", Value: v, Want: "non-negative integer"}
		}
		pf.Indent = n
	}
	return pf, nil
}

func (f *PrettyJSONFormatter) Init(p Properties) error {
	var err error
	if f.strict, err = p.Bool("strict", false); err != nil {
		return err
	}
	f.pf, err = newPretty(p)
	return err
}

func (f *PrettyJSONFormatter) Format(r record.Record, w io.Writer) error {
	out := r.Value
	if json.Valid(r.Value) {
		b, err := f.pf.Format(r.Value)
		if err != nil {
			return err
		}
		out = b
	} else if f.strict {
		return fmt.Errorf("offset %d: payload is not valid JSON", r.Offset)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func (f *PrettyJSONFormatter) Close() error { return nil }

func init() {
	Register("prettyjson", func() (MessageFormatter, error) { return &PrettyJSONFormatter{}, nil })
}
