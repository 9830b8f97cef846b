package stacktrace

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/zircuit-labs/zkr-go-capture/xerrors"
)

// depth of stack to ignore so that callers of Wrap don't see Wrap itself.
const wrapStackDepth = 4

// Disabled turns Wrap into a no-op when set to true.
var Disabled atomic.Bool

// Wrap extends an error with a stack trace captured at the call site.
// An error already carrying a trace is returned unchanged.
// For joined errors, each child is wrapped individually.
func Wrap(err error) error {
	if Disabled.Load() || err == nil {
		return err
	}

	if joined := xerrors.Unjoin(err); len(joined) > 1 {
		wrapped := make([]error, len(joined))
		for i, e := range joined {
			wrapped[i] = Wrap(e)
		}
		return errors.Join(wrapped...)
	}

	return wrapSingle(err)
}

func wrapSingle(err error) error {
	if _, ok := xerrors.Extract[StackTrace](err); !ok {
		return xerrors.Extend(GetStack(wrapStackDepth, true), err)
	}
	return err
}

// Extract returns the StackTrace embedded in the error, if any.
func Extract(err error) StackTrace {
	st, ok := xerrors.Extract[StackTrace](err)
	if !ok {
		return nil
	}
	return st
}

// Marshal formats the stack trace of an error for structured logging.
// It returns nil when the error carries no trace.
func Marshal(err error) any {
	trace := Extract(err)
	if trace == nil {
		return nil
	}

	out := make([]map[string]string, 0, len(trace))
	for _, frame := range trace {
		out = append(out, map[string]string{
			"source": frame.File,
			"line":   strconv.Itoa(frame.LineNumber),
			"func":   frame.Function,
		})
	}
	return out
}
