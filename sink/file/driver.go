// Package file is the sink used for --output <path>: formatter output is
// appended to the file, which is created when missing.
package file

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"ktail/sink"
)

type Config struct {
	Path     string
	Truncate bool // start from an empty file instead of appending
}

type driver struct {
	f *os.File
	w *bufio.Writer
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("file-sink: expected Config, got %T", raw)
	}
	if c.Path == "" {
		return errors.New("file-sink: empty path")
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if c.Truncate {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(c.Path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("file-sink: %w", err)
	}
	d.f, d.w = f, bufio.NewWriter(f)
	return nil
}

func (d *driver) Write(p []byte) (int, error) {
	if d.f == nil {
		return 0, os.ErrClosed
	}
	return d.w.Write(p)
}

func (d *driver) Flush() error {
	if d.f == nil {
		return nil
	}
	return d.w.Flush()
}

func (d *driver) Close() error {
	if d.f == nil {
		return nil
	}
	ferr := d.w.Flush()
	serr := d.f.Sync()
	cerr := d.f.Close()
	d.f = nil
	return errors.Join(ferr, serr, cerr)
}

func init() {
	sink.Register("file", func() sink.Adapter { return &driver{} })
}
