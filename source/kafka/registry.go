package kafka

import (
	"fmt"
	"sort"
)

// Factory builds an Adapter (e.g., SaramaDriver, FranzDriver, …).
type Factory func() Adapter

var registry = map[string]Factory{}

// Register is called from main's driver table or a test.
func Register(name string, f Factory) {
	registry[name] = f
}

// NewAdapter returns a driver by name (“sarama”, “kafka-go”, “franz”…).
func NewAdapter(name string) (Adapter, error) {
	if f, ok := registry[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("kafka: unsupported driver %q (known: %v)", name, Drivers())
}

func Drivers() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
