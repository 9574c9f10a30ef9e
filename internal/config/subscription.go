package config

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	DefaultFetchSize        = 1 << 20
	DefaultSocketBufferSize = 2 << 20
	DefaultGroupPrefix      = "console-consumer-"
)

type OffsetReset int

const (
	Latest OffsetReset = iota
	Earliest
)

func (o OffsetReset) String() string {
	if o == Earliest {
		return "earliest"
	}
	return "latest"
}

// ParseOffsetReset accepts the current and legacy Kafka spellings.
func ParseOffsetReset(s string) (OffsetReset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest", "largest", "newest":
		return Latest, nil
	case "earliest", "smallest", "oldest":
		return Earliest, nil
	}
	return Latest, fmt.Errorf("unknown offset reset policy %q (want earliest or latest)", s)
}

// Subscription is built once per run and never mutated afterwards.
type Subscription struct {
	Topic            string
	Brokers          string // raw connection string as given on the command line
	GroupID          string
	FetchSize        int
	SocketBufferSize int
	OffsetReset      OffsetReset
	AutoCommit       bool
}

// Options carries raw option values as parsed from the command line.
type Options struct {
	Topic            string
	ZKURLs           string
	GroupID          string
	FetchSize        int
	SocketBufferSize int
	OffsetReset      string
	FromBeginning    bool
}

// ConfigError reports an option value that cannot form a subscription.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: --%s %s", e.Option, e.Reason)
}

// DefaultOptions returns the option set used when a flag is left untouched.
// The group id is drawn from rng so concurrent ad-hoc runs do not share a group.
func DefaultOptions(rng *rand.Rand) Options {
	return Options{
		GroupID:          DefaultGroupID(rng),
		FetchSize:        DefaultFetchSize,
		SocketBufferSize: DefaultSocketBufferSize,
		OffsetReset:      Latest.String(),
	}
}

func DefaultGroupID(rng *rand.Rand) string {
	return fmt.Sprintf("%s%d", DefaultGroupPrefix, rng.Intn(100_000))
}

// Build validates opts and turns them into a Subscription.
func Build(opts Options) (Subscription, error) {
	var sub Subscription
	for _, s := range []struct{ name, val string }{
		{"topic", opts.Topic},
		{"zk-urls", opts.ZKURLs},
		{"group", opts.GroupID},
	} {
		if strings.TrimSpace(s.val) == "" {
			return sub, &ConfigError{Option: s.name, Reason: "must not be empty"}
		}
	}
	if opts.FetchSize <= 0 {
		return sub, &ConfigError{Option: "fetch-size", Reason: fmt.Sprintf("must be positive, got %d", opts.FetchSize)}
	}
	if opts.SocketBufferSize <= 0 {
		return sub, &ConfigError{Option: "socket-buffer-size", Reason: fmt.Sprintf("must be positive, got %d", opts.SocketBufferSize)}
	}
	reset, err := ParseOffsetReset(opts.OffsetReset)
	if err != nil {
		return sub, &ConfigError{Option: "offset-reset", Reason: err.Error()}
	}
	if opts.FromBeginning {
		reset = Earliest
	}
	return Subscription{
		Topic:            opts.Topic,
		Brokers:          opts.ZKURLs,
		GroupID:          opts.GroupID,
		FetchSize:        opts.FetchSize,
		SocketBufferSize: opts.SocketBufferSize,
		OffsetReset:      reset,
		AutoCommit:       true,
	}, nil
}
