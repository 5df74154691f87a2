package queue

import (
	"errors"
	"fmt"
)

type abandonError struct {
	reason string
}

func (e *abandonError) Error() string { return e.reason }

type skipError struct {
	reason string
}

func (e *skipError) Error() string { return e.reason }

// Abandon ends a job as a terminal failure that is never retried.
func Abandon(format string, args ...any) error {
	return &abandonError{reason: fmt.Sprintf(format, args...)}
}

// Skip ends a job without effect and without counting it as a failure.
func Skip(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

func classify(err error) (Status, string) {
	if err == nil {
		return StatusSucceeded, ""
	}
	var abandon *abandonError
	if errors.As(err, &abandon) {
		return StatusAbandoned, abandon.reason
	}
	var skip *skipError
	if errors.As(err, &skip) {
		return StatusSkipped, skip.reason
	}
	return StatusFailed, err.Error()
}
