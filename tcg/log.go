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
	"bytes"
	"io"
	"sort"

	"github.com/google/go-tcgstream/register"
)

// Event is a flattened view of a record for a single hash algorithm.
//
// There are many pitfalls for using event log events correctly to determine the
// state of a machine[1]. Nothing in an Event has been replayed against PCR
// values, so it should only be used for debugging.
//
// [1] https://github.com/google/go-attestation/blob/master/docs/event-log-disclosure.md
type Event struct {
	// Sequence gives the position of the event in the event log.
	Sequence int
	// Index of the PCR the event claims to extend.
	Index uint32
	// Untrusted type of the event. It should NOT be used without additional
	// context.
	Type EventType
	// Data of the event.
	Data []byte
	// Digest is the event digest for the requested algorithm. It is empty if
	// the event has no digest for that algorithm.
	Digest []byte
}

// EventLog is a parsed, unverified measurement log.
type EventLog struct {
	// Records holds the returned records in log order.
	Records []Record
	// SpecID is the Spec ID Event of the log, if the reader parsed one.
	SpecID *SpecIDEvent
	// Decoded counts every decoded record, including suppressed ones.
	Decoded int

	sequence []int
}

// ParseEventLog parses an unverified measurement log.
//
// If the log is malformed, the records decoded before the failure are
// returned along with the error. A non-nil error always means the log is
// incomplete.
func ParseEventLog(measurementLog []byte, opts ReaderOpts) (*EventLog, error) {
	r := NewReader(bytes.NewReader(measurementLog), opts)
	var el EventLog
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			el.Decoded = r.Decoded()
			el.SpecID = r.SpecID()
			return &el, err
		}
		el.Records = append(el.Records, rec)
		el.sequence = append(el.sequence, r.Decoded()-1)
	}
	el.Decoded = r.Decoded()
	el.SpecID = r.SpecID()
	return &el, nil
}

// Algs returns the set of digest algorithms used by the log's records,
// ordered by algorithm ID. The zero SHA-1 digest of a Spec ID Event is a
// placeholder, not a measurement, so it is not counted.
func (e *EventLog) Algs() []register.HashAlg {
	seen := map[register.HashAlg]bool{}
	var algs []register.HashAlg
	for _, rec := range e.Records {
		if IsSpecIDEvent(rec) {
			continue
		}
		for _, d := range rec.DigestEntries() {
			if !seen[d.Alg] {
				seen[d.Alg] = true
				algs = append(algs, d.Alg)
			}
		}
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// Events returns the records flattened to the digest of the given hash
// algorithm.
//
// This method is insecure and should only be used for debugging.
func (e *EventLog) Events(hash register.HashAlg) []Event {
	events := make([]Event, 0, len(e.Records))
	for i, rec := range e.Records {
		ev := Event{
			Sequence: i,
			Index:    rec.PCR(),
			Type:     rec.EventType(),
			Data:     rec.EventData(),
		}
		if i < len(e.sequence) {
			ev.Sequence = e.sequence[i]
		}
		for _, d := range rec.DigestEntries() {
			if d.Alg != hash {
				continue
			}
			ev.Digest = d.Digest
			break
		}
		events = append(events, ev)
	}
	return events
}
