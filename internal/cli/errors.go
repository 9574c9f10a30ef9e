package cli

import (
	"context"
	"errors"
)

// UsageError is a command line that cannot be run as given: a missing
// required option or a flag cobra could not parse.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return "usage: " + e.Reason }

// ExitCode maps the outcome of a run to the process exit status.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}
