// Package record holds the unit of data handed from a source driver to a
// formatter. Payload bytes are opaque: nothing in the pipeline parses them.
package record

import "time"

type Header struct {
	Key   string
	Value []byte
}

type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   []Header
	Timestamp time.Time
}
