package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"ktail/record"
)

// YAMLFormatter renders JSON payloads as YAML documents, keeping key order.
// Non-JSON payloads become a string scalar unless strict=true.
type YAMLFormatter struct {
	indent int
	strict bool
	buf    bytes.Buffer
}

func (f *YAMLFormatter) Init(p Properties) error {
	var err error
	if f.strict, err = p.Bool("strict", false); err != nil {
		return err
	}
	f.indent = 2
	if v, ok := p.Get("indent"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return &PropertyValueError{Key: "indent", Value: v, Want: "positive integer"}
		}
		f.indent = n
	}
	return nil
}

func (f *YAMLFormatter) Format(r record.Record, w io.Writer) error {
	var doc yaml.Node
	if json.Valid(r.Value) {
		if err := yaml.Unmarshal(r.Value, &doc); err != nil {
			return fmt.Errorf("offset %d: %w", r.Offset, err)
		}
		blockStyle(&doc)
	} else if f.strict {
		return fmt.Errorf("offset %d: payload is not valid JSON", r.Offset)
	} else {
		doc.Kind = yaml.ScalarNode
		doc.Tag = "!!str"
		doc.Value = string(r.Value)
	}

	f.buf.Reset()
	f.buf.WriteString("---\n")
	enc := yaml.NewEncoder(&f.buf)
	enc.SetIndent(f.indent)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := f.buf.WriteTo(w)
	return err
}

func (f *YAMLFormatter) Close() error { return nil }

// blockStyle drops the flow and quoting styles the JSON source implies.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func init() {
	Register("yaml", func() (MessageFormatter, error) { return &YAMLFormatter{}, nil })
}
