package formatter

import (
	"bytes"
	"io"
	"strconv"

	"ktail/record"
)

// KVFormatter prints the payload prefixed by the record metadata selected
// with the print.* properties, each field separated by key.separator.
type KVFormatter struct {
	key, partition, offset, timestamp, headers bool

	sep, eol, null string
	buf            bytes.Buffer
}

func (f *KVFormatter) Init(p Properties) error {
	var err error
	for _, b := range []struct {
		dst *bool
		key string
	}{
		{&f.key, "print.key"},
		{&f.partition, "print.partition"},
		{&f.offset, "print.offset"},
		{&f.timestamp, "print.timestamp"},
		{&f.headers, "print.headers"},
	} {
		if *b.dst, err = p.Bool(b.key, false); err != nil {
			return err
		}
	}
	f.sep = unescape(p.String("key.separator", "\t"))
	f.eol = unescape(p.String("line.separator", "\n"))
	f.null = p.String("null.literal", "null")
	return nil
}

func (f *KVFormatter) Format(r record.Record, w io.Writer) error {
	f.buf.Reset()
	field := func(s string) {
		f.buf.WriteString(s)
		f.buf.WriteString(f.sep)
	}
	if f.timestamp {
		if r.Timestamp.IsZero() {
			field("NO_TIMESTAMP")
		} else {
			field("CreateTime:" + strconv.FormatInt(r.Timestamp.UnixMilli(), 10))
		}
	}
	if f.partition {
		field("Partition:" + strconv.FormatInt(int64(r.Partition), 10))
	}
	if f.offset {
		field("Offset:" + strconv.FormatInt(r.Offset, 10))
	}
	if f.headers {
		if len(r.Headers) == 0 {
			field("NO_HEADERS")
		} else {
			for i, h := range r.Headers {
				if i > 0 {
					f.buf.WriteByte(',')
				}
				f.buf.WriteString(h.Key)
				f.buf.WriteByte(':')
				f.buf.WriteString(f.orNull(h.Value))
			}
			f.buf.WriteString(f.sep)
		}
	}
	if f.key {
		field(f.orNull(r.Key))
	}
	f.buf.WriteString(f.orNull(r.Value))
	f.buf.WriteString(f.eol)
	_, err := f.buf.WriteTo(w)
	return err
}

func (f *KVFormatter) orNull(b []byte) string {
	if b == nil {
		return f.null
	}
	return string(b)
}

func (f *KVFormatter) Close() error { return nil }

func init() {
	Register("kv", func() (MessageFormatter, error) { return &KVFormatter{}, nil })
}
