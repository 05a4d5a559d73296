// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way spec §7 requires: every error
// surfaced by this package is either Io or InvalidData, never a panic.
type Kind uint8

const (
	// KindIo means the underlying file could not be read.
	KindIo Kind = iota
	// KindInvalidData means a structural violation was found in
	// otherwise-readable bytes: a bad signature, an unknown stream or
	// table id, a truncated blob, an unresolved coded index, or an
	// unsupported signature opcode.
	KindInvalidData
)

func (k Kind) String() string {
	if k == KindIo {
		return "io"
	}
	return "invalid data"
}

// Error is the single error type returned by every public operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("winmd: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("winmd: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func ioErr(op string, err error) error {
	return &Error{Kind: KindIo, Op: op, Err: err}
}

func invalidData(op string, format string, a ...interface{}) error {
	return &Error{Kind: KindInvalidData, Op: op, Err: fmt.Errorf(format, a...)}
}

func wrapInvalidData(op string, err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return &Error{Kind: KindInvalidData, Op: op, Err: err}
}

// IsInvalidData reports whether err (or a wrapped cause) is a KindInvalidData error.
func IsInvalidData(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidData
}

// IsIo reports whether err (or a wrapped cause) is a KindIo error.
func IsIo(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindIo
}

// Outside-boundary reads are always a structural failure: any offset
// the engine computes from validated header fields must stay in bounds,
// so a bounds miss here means the input lied about its own layout.
var errOutsideBoundary = invalidData("byteview", "read outside image boundary")
