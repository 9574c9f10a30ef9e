package pipeline

import "fmt"

// SubscriptionError is a failure of the broker client: joining the group,
// reaching the cluster, or a fetch error once streaming.
type SubscriptionError struct {
	Op    string // "subscribe" or "consume"
	Topic string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Topic, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// FormatError is a formatter failure on one record. It ends the run; the
// record is not acknowledged.
type FormatError struct {
	Topic     string
	Partition int32
	Offset    int64
	Err       error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s[%d]@%d: %v", e.Topic, e.Partition, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
