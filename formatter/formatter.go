// Package formatter defines the pluggable output strategy applied to every
// consumed record, the name->constructor registry used to select one at
// runtime, and the built-in implementations.
//
// A formatter sees three calls in a fixed order: Init exactly once before
// any record, Format once per record, and Close exactly once at the end of
// the run, also when the run ends with an error.
package formatter

import (
	"io"

	"ktail/record"
)

type MessageFormatter interface {
	Init(Properties) error
	Format(record.Record, io.Writer) error
	Close() error
}

// Properties is an ordered set of key/value pairs given with --property.
// A repeated key keeps its first position and its last value.
type Properties struct {
	keys []string
	vals map[string]string
}

func NewProperties() Properties {
	return Properties{vals: map[string]string{}}
}

func (p *Properties) Set(key, value string) {
	if p.vals == nil {
		p.vals = map[string]string{}
	}
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = value
}

func (p Properties) Get(key string) (string, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// String returns the value for key or def when absent.
func (p Properties) String(key, def string) string {
	if v, ok := p.vals[key]; ok {
		return v
	}
	return def
}

func (p Properties) Keys() []string { return append([]string(nil), p.keys...) }
func (p Properties) Len() int       { return len(p.keys) }

// Map returns a copy of the pairs.
func (p Properties) Map() map[string]string {
	out := make(map[string]string, len(p.vals))
	for k, v := range p.vals {
		out[k] = v
	}
	return out
}
