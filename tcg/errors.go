// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package tcg

import (
	"errors"
	"fmt"

	"github.com/google/go-tcgstream/register"
)

// ErrorKind classifies a decode failure. Every kind is an error value itself,
// so callers can match a *DecodeError with errors.Is(err, tcg.Truncated).
type ErrorKind int

// Decode error kinds.
const (
	// Truncated means the source ended after a record had begun.
	Truncated ErrorKind = iota + 1
	// OversizedField means a declared length exceeds its structural maximum.
	OversizedField
	// InvalidCount means a digest count was zero or above MaxDigestCount.
	InvalidCount
	// UnknownAlgorithm means the registry has no size for a digest algorithm.
	UnknownAlgorithm
	// IO means the source failed for a reason unrelated to the log format.
	IO
)

// Error returns a short description of the kind.
func (k ErrorKind) Error() string {
	switch k {
	case Truncated:
		return "truncated record"
	case OversizedField:
		return "oversized field"
	case InvalidCount:
		return "invalid digest count"
	case UnknownAlgorithm:
		return "unknown digest algorithm"
	case IO:
		return "i/o error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// DecodeError describes why a record could not be decoded.
type DecodeError struct {
	Kind ErrorKind
	// Field is the name of the field being read or validated.
	Field string
	// Declared and Max are the offending length or count and its limit, for
	// OversizedField and InvalidCount.
	Declared uint32
	Max      uint32
	// Alg is the unrecognized algorithm for UnknownAlgorithm.
	Alg register.HashAlg
	// Err is the underlying source error for Truncated and IO.
	Err error
}

// Error returns a human-friendly description of the failure.
func (e *DecodeError) Error() string {
	switch e.Kind {
	case Truncated, IO:
		return fmt.Sprintf("%v: reading %s: %v", e.Kind, e.Field, e.Err)
	case OversizedField:
		return fmt.Sprintf("%v: %s size (%d bytes) exceeds maximum (%d bytes)", e.Kind, e.Field, e.Declared, e.Max)
	case InvalidCount:
		return fmt.Sprintf("%v: %s %d outside [1, %d]", e.Kind, e.Field, e.Declared, e.Max)
	case UnknownAlgorithm:
		return fmt.Sprintf("%v: 0x%04x", e.Kind, uint16(e.Alg))
	}
	return e.Kind.Error()
}

// Is reports whether target is the kind of e.
func (e *DecodeError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Unwrap returns the underlying source error, if any.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReadError is returned by a Reader once its session has failed. Index is the
// zero-based position of the record that could not be decoded, which is also
// the number of records decoded before it.
type ReadError struct {
	Index int
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// SinkError reports a record a Sink refused. It ends the session.
type SinkError struct {
	Index int
	Err   error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink rejected record %d: %v", e.Index, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

var errEventLogPadding = errors.New("reached padding before event log EOF")
