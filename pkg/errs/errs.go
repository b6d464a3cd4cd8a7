package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	traceSkip     = 3
	tracePrealloc = 32
)

type frame struct {
	file     string
	function string
	line     int
}

type errorWithTrace struct {
	error

	trace []frame
}

func (e *errorWithTrace) Unwrap() error { return e.error }

// NewStack wraps err with the call stack of the first wrap site.
// Wrapping an already traced error returns it unchanged, so the trace
// always points at the place the error left its origin.
func NewStack(err error) error {
	if err == nil {
		return nil
	}

	var traced *errorWithTrace
	if errors.As(err, &traced) {
		return err
	}

	return &errorWithTrace{
		error: err,
		trace: stackTrace(traceSkip),
	}
}

// Trace renders the recorded stack of err, or "" when err carries none.
func Trace(err error) string {
	var traced *errorWithTrace
	if !errors.As(err, &traced) {
		return ""
	}

	var out strings.Builder
	for _, f := range traced.trace {
		fmt.Fprintf(&out, "%s\n\t%s:%d\n", f.function, f.file, f.line)
	}

	return out.String()
}

func stackTrace(skip int) []frame {
	pc := make([]uintptr, tracePrealloc)
	n := runtime.Callers(skip, pc)

	frames := runtime.CallersFrames(pc[:n])
	trace := make([]frame, 0, n)

	for {
		f, more := frames.Next()

		trace = append(trace, frame{file: f.File, function: f.Function, line: f.Line})

		if !more {
			break
		}
	}

	return trace
}
