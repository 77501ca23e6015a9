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
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/google/go-tcgstream/register"
)

// State is the position of a Reader in its decode session.
type State int

// Reader states. StateDone and StateFailed are terminal.
const (
	StateStart State = iota
	StateReadingLegacy
	StateReadingMultiAlg
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateReadingLegacy:
		return "ReadingLegacy"
	case StateReadingMultiAlg:
		return "ReadingMultiAlg"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ReaderOpts gives options for reading a measurement log.
type ReaderOpts struct {
	// Registry sizes the digests of crypto agile events. Defaults to
	// register.TCG.
	Registry register.Registry
	// SkipNoAction decodes EV_NO_ACTION events but does not return them.
	SkipNoAction bool
	// AllowPadding ends the log cleanly at a crypto agile event whose PCR index
	// is 0xFFFFFFFF. Confidential Computing event logs are padded this way.
	AllowPadding bool
	// UseSpecIDSizes sizes crypto agile digests with the algorithms declared by
	// a leading Spec ID Event instead of Registry.
	UseSpecIDSizes bool
	// DetectSHA1Log keeps decoding SHA-1 format events when the first event is
	// not a Spec ID Event, as TPM 1.2 logs never switch to the crypto agile
	// format.
	DetectSHA1Log bool
	// Logger receives per record traces at V(1) and V(2). Defaults to
	// logr.Discard().
	Logger logr.Logger
}

// Reader decodes a measurement log from a byte stream. The first record is
// decoded in the SHA-1 format and every later record in the crypto agile
// format. A Reader stops at the first error; it never skips a malformed
// record, since the next record boundary can not be trusted.
//
// A Reader is not safe for concurrent use. Use one Reader per stream.
type Reader struct {
	r      io.Reader
	opts   ReaderOpts
	reg    register.Registry
	log    logr.Logger
	state  State
	err    error
	specID *SpecIDEvent

	decoded int
	emitted int
}

// NewReader returns a Reader that owns the read position of r.
func NewReader(r io.Reader, opts ReaderOpts) *Reader {
	reg := opts.Registry
	if reg == nil {
		reg = register.TCG
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Reader{r: r, opts: opts, reg: reg, log: log}
}

// State returns the current state of the session.
func (r *Reader) State() State { return r.state }

// Decoded returns the number of records decoded so far, including the ones
// suppressed by SkipNoAction.
func (r *Reader) Decoded() int { return r.decoded }

// Emitted returns the number of records returned by Next so far.
func (r *Reader) Emitted() int { return r.emitted }

// SpecID returns the Spec ID Event parsed from the first record. It is nil
// unless UseSpecIDSizes or DetectSHA1Log is set and the first record was a
// valid Spec ID Event.
func (r *Reader) SpecID() *SpecIDEvent { return r.specID }

// Err returns the error that failed the session, or nil.
func (r *Reader) Err() error { return r.err }

// Next returns the next record of the log. It returns io.EOF once the log has
// ended cleanly at a record boundary. Any other error is a *ReadError or
// *SinkError, and every later call returns the same error without reading.
func (r *Reader) Next() (Record, error) {
	for {
		rec, err := r.step()
		if err != nil {
			return nil, err
		}
		if r.opts.SkipNoAction && rec.EventType() == NoAction {
			r.log.V(2).Info("suppressing event", "index", r.decoded-1, "type", rec.EventType())
			continue
		}
		r.emitted++
		return rec, nil
	}
}

// step decodes a single record, advancing the state machine.
func (r *Reader) step() (Record, error) {
	switch r.state {
	case StateDone:
		return nil, io.EOF
	case StateFailed:
		return nil, r.err
	case StateStart:
		r.state = StateReadingLegacy
	}

	if r.state == StateReadingLegacy {
		rec, err := DecodeLegacy(r.r)
		if err != nil {
			return nil, r.fail(err)
		}
		if rec == nil {
			return nil, r.done()
		}
		if err := r.afterLegacy(rec); err != nil {
			return nil, r.fail(err)
		}
		r.trace(rec)
		return rec, nil
	}

	rec, err := decodeMulti(r.r, r.reg, r.opts.AllowPadding)
	if err == errEventLogPadding {
		r.log.V(1).Info("reached trailing padding", "index", r.decoded)
		return nil, r.done()
	}
	if err != nil {
		return nil, r.fail(err)
	}
	if rec == nil {
		return nil, r.done()
	}
	r.decoded++
	r.trace(rec)
	return rec, nil
}

// afterLegacy counts a legacy record and picks the format of the records that
// follow it.
func (r *Reader) afterLegacy(rec *LegacyRecord) error {
	if r.decoded > 0 {
		r.decoded++
		return nil
	}
	isSpecID := IsSpecIDEvent(rec)
	if isSpecID && (r.opts.UseSpecIDSizes || r.opts.DetectSHA1Log) {
		specID, err := ParseSpecIDEvent(rec.Data)
		if err != nil {
			return fmt.Errorf("failed to parse spec ID event: %w", err)
		}
		r.specID = specID
		if r.opts.UseSpecIDSizes {
			sizes, err := specID.Registry()
			if err != nil {
				return fmt.Errorf("spec ID event: %w", err)
			}
			r.reg = sizes
			r.log.V(1).Info("using spec ID digest sizes", "algs", sizes.Algs())
		}
	}
	r.decoded++
	if r.opts.DetectSHA1Log && !isSpecID {
		r.log.V(1).Info("first event is not a spec ID event, reading SHA-1 log")
		return nil
	}
	r.state = StateReadingMultiAlg
	return nil
}

func (r *Reader) done() error {
	r.state = StateDone
	r.log.V(1).Info("measurement log complete", "decoded", r.decoded, "emitted", r.emitted)
	return io.EOF
}

func (r *Reader) fail(err error) error {
	r.state = StateFailed
	r.err = &ReadError{Index: r.decoded, Err: err}
	r.log.Error(err, "measurement log decode failed", "index", r.decoded)
	return r.err
}

func (r *Reader) trace(rec Record) {
	if v := r.log.V(1); v.Enabled() {
		v.Info("decoded event", "index", r.decoded-1, "pcr", rec.PCR(), "type", rec.EventType(), "size", len(rec.EventData()))
	}
}

// Drain hands every remaining record to s, in log order. It returns nil once
// the log ends cleanly. A sink failure ends the session with a *SinkError;
// records are never retried or skipped.
func (r *Reader) Drain(s Sink) error {
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Accept(rec); err != nil {
			r.state = StateFailed
			r.err = &SinkError{Index: r.decoded - 1, Err: err}
			r.log.Error(err, "sink rejected event", "index", r.decoded-1)
			return r.err
		}
	}
}
