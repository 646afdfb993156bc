// Package ftidxerr defines the typed error kinds every other package
// wraps its failures in (spec §7), so callers can branch on Kind
// without string-matching error text — the same "sentinel kind plus
// wrapped cause" shape the teacher reaches for with errors.Is/As in
// serialization.go's corrupt-file paths.
package ftidxerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way spec §7 enumerates them.
type Kind int

const (
	Io Kind = iota
	Corrupt
	VersionUnsupported
	Schema
	OutOfPool
	Budget
	Interrupted
	Config
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Corrupt:
		return "corrupt"
	case VersionUnsupported:
		return "version_unsupported"
	case Schema:
		return "schema"
	case OutOfPool:
		return "out_of_pool"
	case Budget:
		return "budget"
	case Interrupted:
		return "interrupted"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

// Error is the wrapped-cause error every package returns for a
// classified failure. Component names the subsystem that raised it
// (e.g. "wordlist", "qword") so a CLI can print "wordlist: corrupt:
// checkpoint offset out of range" without each package hand-rolling
// its own prefix.
type Error struct {
	Kind      Kind
	Component string
	Msg       string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a classified error with no underlying cause.
func New(kind Kind, component, msg string) error {
	return &Error{Kind: kind, Component: component, Msg: msg}
}

// Wrap classifies an existing error, attaching component/kind context.
func Wrap(kind Kind, component, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Msg: msg, Cause: cause}
}

// Is reports whether err is (or wraps) a classified error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
