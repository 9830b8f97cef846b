// Package capture provides tee decorators that record a bounded copy of HTTP
// request and response bodies as they are read or written, without altering
// what the consumer observes.
package capture

import (
	"errors"
	"fmt"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

// Mode is the body representation a wrapper has committed to for an exchange.
// It is locked by the first mode-specific accessor used; conflicting access
// afterwards fails rather than guessing.
type Mode int

const (
	ModeNone Mode = iota
	ModeBytes
	ModeText
)

// String implements the stringer interface.
func (m Mode) String() string {
	switch m {
	case ModeBytes:
		return "bytes"
	case ModeText:
		return "text"
	default:
		return "none"
	}
}

// Accessor selects which capturer a forced drain opens when no capture mode
// was ever chosen on the wrapper.
type Accessor int

const (
	AccessorStream Accessor = iota // byte-oriented
	AccessorReader                 // char-oriented
)

var (
	// ErrModeConflict is returned when a byte-oriented accessor is used after
	// the text-oriented one locked the capture mode, or vice versa.
	ErrModeConflict = errors.New("capture mode already locked")

	// ErrMarkUnsupported is returned by Mark/Reset when the underlying source
	// cannot seek.
	ErrMarkUnsupported = errors.New("mark/reset not supported by source")
)

func modeConflict(locked Mode) error {
	return errclass.WrapAs(stacktrace.Wrap(
		fmt.Errorf("%w: body already accessed as %s", ErrModeConflict, locked),
	), errclass.Invalid)
}

func markUnsupported() error {
	return errclass.WrapAs(stacktrace.Wrap(ErrMarkUnsupported), errclass.Invalid)
}
