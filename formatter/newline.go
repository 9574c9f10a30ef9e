package formatter

import (
	"io"

	"ktail/record"
)

// NewlineFormatter writes the raw payload followed by a single '\n'.
type NewlineFormatter struct{}

func (NewlineFormatter) Init(Properties) error { return nil }

func (NewlineFormatter) Format(r record.Record, w io.Writer) error {
	if _, err := w.Write(r.Value); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func (NewlineFormatter) Close() error { return nil }

func init() {
	Register(DefaultName, func() (MessageFormatter, error) { return NewlineFormatter{}, nil })
}
