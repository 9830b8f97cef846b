// Package errclass provides simple error classification.
package errclass

import (
	"github.com/zircuit-labs/zkr-go-capture/xerrors"
)

// Class represents a type of error.
type Class int

// Allowed classifications. Values are arbitrary but strictly ordered by
// severity; the class of a joined error is the highest class among its parts.
const (
	Nil     Class = -1
	Unknown Class = 0

	// Invalid marks caller misuse of an API, such as requesting a capture
	// representation after the opposite one was already locked in.
	Invalid Class = 50

	Transient  Class = 100
	Persistent Class = 110

	Panic Class = 900
)

// String implements the stringer interface.
func (c Class) String() string {
	switch c {
	case Nil:
		return "nil"
	case Invalid:
		return "invalid"
	case Transient:
		return "transient"
	case Persistent:
		return "persistent"
	case Panic:
		return "panic"
	default:
		return "unknown"
	}
}

// WrapAs extends an error with the given class.
func WrapAs(err error, class Class) error {
	if err == nil {
		return nil
	}
	return xerrors.Extend(class, err)
}

// GetClass extracts the Class from an error.
func GetClass(err error) Class {
	if err == nil {
		return Nil
	}

	maxClass := Nil
	for _, joinedErr := range xerrors.Unjoin(err) {
		class, ok := xerrors.Extract[Class](joinedErr)
		switch {
		case ok && class > maxClass:
			maxClass = class
		case !ok && maxClass < Unknown:
			maxClass = Unknown
		}
	}
	return maxClass
}
