package formatter

import (
	"fmt"
	"sort"
	"sync"
)

const DefaultName = "newline"

// Factory builds a formatter (NewlineFormatter, JSONFormatter, ...).
type Factory func() (MessageFormatter, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register is called from each formatter's init(); a later registration
// under the same name replaces the earlier one.
func Register(name string, f Factory) {
	mu.Lock()
	registry[name] = f
	mu.Unlock()
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolve returns a fresh, uninitialized formatter by name.
func Resolve(name string) (MessageFormatter, error) {
	if name == "" {
		name = DefaultName
	}
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: name, Known: Names()}
	}
	return construct(name, f)
}

func construct(name string, f Factory) (mf MessageFormatter, err error) {
	defer func() {
		if r := recover(); r != nil {
			mf, err = nil, &InstantiationError{Name: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	mf, err = f()
	if err != nil {
		return nil, &InstantiationError{Name: name, Err: err}
	}
	if mf == nil {
		return nil, &InstantiationError{Name: name, Err: fmt.Errorf("factory returned nil")}
	}
	return mf, nil
}

// Load resolves name and initializes the formatter with props. The returned
// formatter is ready for Format; on error nothing needs closing.
func Load(name string, props Properties) (MessageFormatter, error) {
	mf, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultName
	}
	if err := mf.Init(props); err != nil {
		return nil, &InitError{Name: name, Err: err}
	}
	return mf, nil
}
