package elf64

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a decode failure.
type Kind uint8

const (
	// KindStructural covers wrong magic, bad table geometry and premature
	// end of input inside a fixed-size region.
	KindStructural Kind = iota + 1
	// KindUnsupported covers field values outside the defined or accepted set.
	KindUnsupported
	// KindMalformedFlags covers bit-flag fields with undefined bits set.
	KindMalformedFlags
	// KindIO covers failures reported by the byte source.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindUnsupported:
		return "unsupported-value"
	case KindMalformedFlags:
		return "malformed-flags"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// FormatError is returned by every decode step in this package.
type FormatError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying I/O error, if any.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *FormatError of kind k.
func IsKind(err error, k Kind) bool {
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		return false
	}
	return ferr.Kind == k
}

func structural(format string, args ...any) error {
	return &FormatError{Kind: KindStructural, Msg: fmt.Sprintf(format, args...)}
}

// structuralMsg is structural for a message that is not a format string.
func structuralMsg(msg string) error {
	return &FormatError{Kind: KindStructural, Msg: msg}
}

func unsupported(msg string) error {
	return &FormatError{Kind: KindUnsupported, Msg: msg}
}

func malformedFlags(format string, args ...any) error {
	return &FormatError{Kind: KindMalformedFlags, Msg: fmt.Sprintf(format, args...)}
}

func ioFailure(msg string, err error) error {
	return &FormatError{Kind: KindIO, Msg: msg, Err: errors.WithStack(err)}
}
