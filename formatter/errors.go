package formatter

import (
	"fmt"
	"strings"
)

// InvalidPropertyError lists every --property argument that is not key=value.
type InvalidPropertyError struct {
	Entries []string
}

func (e *InvalidPropertyError) Error() string {
	quoted := make([]string, len(e.Entries))
	for i, s := range e.Entries {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("invalid formatter properties (want key=value): %s", strings.Join(quoted, ", "))
}

// PropertyValueError is returned from Init when a property has the wrong shape.
type PropertyValueError struct {
	Key   string
	Value string
	Want  string
}

func (e *PropertyValueError) Error() string {
	return fmt.Sprintf("property %s=%q: want %s", e.Key, e.Value, e.Want)
}

type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("formatter %q not found (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

type InstantiationError struct {
	Name string
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("formatter %q: construct: %v", e.Name, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("formatter %q: init: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
