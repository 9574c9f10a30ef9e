package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"ktail/record"
)

const defaultTemplate = `%v\n`

type segment func(*bytes.Buffer, *record.Record, uint64)

// TemplateFormatter renders records with a kcat-like format string:
//
//	%t topic   %T topic length   %p partition   %o offset
//	%k key     %K key length     %v value       %V value length
//	%d timestamp (unix ms)       %i iteration (from 1)   %% percent
//
// and the escapes \n \t \r \\ and \xXX.
type TemplateFormatter struct {
	segs []segment
	iter uint64
	buf  bytes.Buffer
}

func (f *TemplateFormatter) Init(p Properties) error {
	segs, err := compileTemplate(p.String("format", defaultTemplate))
	if err != nil {
		return err
	}
	f.segs = segs
	return nil
}

func (f *TemplateFormatter) Format(r record.Record, w io.Writer) error {
	f.iter++
	f.buf.Reset()
	for _, s := range f.segs {
		s(&f.buf, &r, f.iter)
	}
	_, err := f.buf.WriteTo(w)
	return err
}

func (f *TemplateFormatter) Close() error { return nil }

func literal(s string) segment {
	return func(b *bytes.Buffer, _ *record.Record, _ uint64) { b.WriteString(s) }
}

func compileTemplate(format string) ([]segment, error) {
	var (
		segs []segment
		lit  []byte
	)
	flush := func() {
		if len(lit) > 0 {
			segs = append(segs, literal(string(lit)))
			lit = nil
		}
	}
	bad := func(why string) error {
		return &PropertyValueError{Key: "format", Value: format, Want: why}
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case '\\':
			if i+1 >= len(format) {
				return nil, bad("escape sequence after trailing backslash")
			}
			i++
			switch format[i] {
			case 'n':
				lit = append(lit, '\n')
			case 't':
				lit = append(lit, '\t')
			case 'r':
				lit = append(lit, '\r')
			case '\\':
				lit = append(lit, '\\')
			case 'x':
				if i+2 >= len(format) {
					return nil, bad(`two hex digits after \x`)
				}
				n, err := strconv.ParseUint(format[i+1:i+3], 16, 8)
				if err != nil {
					return nil, bad(`two hex digits after \x`)
				}
				lit = append(lit, byte(n))
				i += 2
			default:
				return nil, bad(fmt.Sprintf(`known escape, got \%c`, format[i]))
			}
		case '%':
			if i+1 >= len(format) {
				return nil, bad("verb after trailing %")
			}
			i++
			if format[i] == '%' {
				lit = append(lit, '%')
				continue
			}
			seg, ok := verbs[format[i]]
			if !ok {
				return nil, bad(fmt.Sprintf("known verb, got %%%c", format[i]))
			}
			flush()
			segs = append(segs, seg)
		default:
			lit = append(lit, c)
		}
	}
	flush()
	return segs, nil
}

var verbs = map[byte]segment{
	't': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(r.Topic) },
	'T': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.Itoa(len(r.Topic))) },
	'p': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.FormatInt(int64(r.Partition), 10)) },
	'o': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.FormatInt(r.Offset, 10)) },
	'k': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.Write(r.Key) },
	'K': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.Itoa(len(r.Key))) },
	'v': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.Write(r.Value) },
	'V': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.Itoa(len(r.Value))) },
	'd': func(b *bytes.Buffer, r *record.Record, _ uint64) { b.WriteString(strconv.FormatInt(r.Timestamp.UnixMilli(), 10)) },
	'i': func(b *bytes.Buffer, _ *record.Record, n uint64) { b.WriteString(strconv.FormatUint(n, 10)) },
}

func init() {
	Register("template", func() (MessageFormatter, error) { return &TemplateFormatter{}, nil })
}
