package sink

import (
	"fmt"
	"io"
	"sort"
)

// Adapter is the append-only destination formatters write into. Writes may
// be buffered; Flush pushes them out and Close flushes before releasing the
// underlying handle.
type Adapter interface {
	io.Writer
	Configure(any) error // driver-specific config struct
	Flush() error
	Close() error // idempotent
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q (known: %v)", name, Names())
}

func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
