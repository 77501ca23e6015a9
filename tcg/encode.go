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
	"encoding/binary"
	"fmt"
)

// SHA1 event log format header.
type rawEventHeader struct {
	PCRIndex  uint32
	Type      uint32
	Digest    [LegacyDigestSize]byte
	EventSize uint32
}

// Crypto agile event log format header, up to the digest list.
type rawEvent2Header struct {
	PCRIndex   uint32
	Type       uint32
	NumDigests uint32
}

// MarshalBinary serializes the event in the SHA-1 log format.
func (e *LegacyRecord) MarshalBinary() ([]byte, error) {
	if len(e.Data) > MaxEventDataSize {
		return nil, &DecodeError{Kind: OversizedField, Field: "event_data", Declared: uint32(len(e.Data)), Max: MaxEventDataSize}
	}
	out := bytes.NewBuffer(make([]byte, 0, binary.Size(rawEventHeader{})+len(e.Data)))
	binary.Write(out, binary.LittleEndian, rawEventHeader{
		PCRIndex:  e.PCRIndex,
		Type:      uint32(e.Type),
		Digest:    e.Digest,
		EventSize: uint32(len(e.Data)),
	})
	out.Write(e.Data)
	return out.Bytes(), nil
}

// MarshalBinary serializes the event in the crypto agile log format. It
// enforces the same limits as DecodeMulti, but can not check digest sizes
// against a registry.
func (e *MultiAlgRecord) MarshalBinary() ([]byte, error) {
	if len(e.Digests) == 0 || len(e.Digests) > MaxDigestCount {
		return nil, &DecodeError{Kind: InvalidCount, Field: "digest_count", Declared: uint32(len(e.Digests)), Max: MaxDigestCount}
	}
	if len(e.Data) > MaxEventDataSize {
		return nil, &DecodeError{Kind: OversizedField, Field: "event", Declared: uint32(len(e.Data)), Max: MaxEventDataSize}
	}
	out := new(bytes.Buffer)
	binary.Write(out, binary.LittleEndian, rawEvent2Header{
		PCRIndex:   e.PCRIndex,
		Type:       uint32(e.Type),
		NumDigests: uint32(len(e.Digests)),
	})
	for i, d := range e.Digests {
		if len(d.Digest) == 0 || len(d.Digest) > MaxDigestSize {
			return nil, fmt.Errorf("digest %d (%v): size %d outside [1, %d]", i, d.Alg, len(d.Digest), MaxDigestSize)
		}
		binary.Write(out, binary.LittleEndian, uint16(d.Alg))
		out.Write(d.Digest)
	}
	binary.Write(out, binary.LittleEndian, uint32(len(e.Data)))
	out.Write(e.Data)
	return out.Bytes(), nil
}

// AppendRecords serializes recs in order, as they would appear in a log.
func AppendRecords(b []byte, recs ...Record) ([]byte, error) {
	for i, rec := range recs {
		var raw []byte
		var err error
		switch rec := rec.(type) {
		case *LegacyRecord:
			raw, err = rec.MarshalBinary()
		case *MultiAlgRecord:
			raw, err = rec.MarshalBinary()
		default:
			err = fmt.Errorf("unsupported record type %T", rec)
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		b = append(b, raw...)
	}
	return b, nil
}
