// ktail/sink/stdout/driver.go
package stdout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	colorable "github.com/mattn/go-colorable"

	"ktail/sink"
)

const defaultBufferSize = 64 << 10

/* ────────── config ────────── */
type Config struct {
	BufferSize int       // 0 = default
	Out        io.Writer // nil = process stdout
}

/* ────────── driver ────────── */
type driver struct {
	mu     sync.Mutex // guards w+closed
	w      *bufio.Writer
	closed bool
}

/* ────────── sink.Adapter ────────── */
func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	out := c.Out
	if out == nil {
		// translates ANSI colors on consoles that lack native support
		out = colorable.NewColorable(os.Stdout)
	}
	size := c.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	d.w = bufio.NewWriterSize(out, size)
	return nil
}

func (d *driver) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, os.ErrClosed
	}
	return d.w.Write(p)
}

func (d *driver) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	return d.w.Flush()
}

// Close flushes; the process stdout itself stays open.
func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.w.Flush()
}

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
