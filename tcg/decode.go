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

// Package tcg decodes TCG PC Client measurement logs one record at a time.
//
// A log starts with a single SHA-1 format event followed by crypto agile
// events. Every length read from the log is checked against a fixed limit
// before it is used to size a read, so a corrupt or hostile log can not force
// large allocations.
package tcg

import (
	"encoding/binary"
	"io"

	"github.com/google/go-tcgstream/register"
)

const (
	// LegacyDigestSize is the size of the SHA-1 digest of a legacy event.
	LegacyDigestSize = 20
	// MaxEventDataSize bounds the event data of every record.
	MaxEventDataSize = 4096
	// MaxDigestCount bounds the digest list of a crypto agile event: one entry
	// for each algorithm of register.TCG. Firmware only logs one digest per
	// active PCR bank.
	MaxDigestCount = 5
	// MaxDigestSize bounds the size of any single digest, whatever the
	// registry says. It is the SHA-512 digest size.
	MaxDigestSize = 64
)

// paddingPCRIndex marks the start of the trailing padding of a CCEL.
const paddingPCRIndex = 0xFFFFFFFF

// Uint16 decodes the little-endian integer in b, which must hold exactly 2
// bytes. Every multi-byte field of a log is little-endian, whatever the host.
func Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// Uint32 decodes the little-endian integer in b, which must hold exactly 4
// bytes.
func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// fieldReader reads the fields of a single record. The first read of a record
// may report io.EOF; once anything has been read, running out of input is a
// truncated record.
type fieldReader struct {
	r     io.Reader
	buf   [4]byte
	begun bool
}

func (f *fieldReader) read(b []byte, field string) error {
	_, err := io.ReadFull(f.r, b)
	begun := f.begun
	f.begun = true
	switch {
	case err == nil:
		return nil
	case err == io.EOF && !begun:
		return io.EOF
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return &DecodeError{Kind: Truncated, Field: field, Err: io.ErrUnexpectedEOF}
	default:
		return &DecodeError{Kind: IO, Field: field, Err: err}
	}
}

func (f *fieldReader) uint16(field string) (uint16, error) {
	b := f.buf[:2]
	if err := f.read(b, field); err != nil {
		return 0, err
	}
	return Uint16(b), nil
}

func (f *fieldReader) uint32(field string) (uint32, error) {
	b := f.buf[:4]
	if err := f.read(b, field); err != nil {
		return 0, err
	}
	return Uint32(b), nil
}

// bytes reads n bytes. Callers must bound n before calling.
func (f *fieldReader) bytes(n uint32, field string) ([]byte, error) {
	b := make([]byte, n)
	if err := f.read(b, field); err != nil {
		return nil, err
	}
	return b, nil
}

// eventData reads the size prefixed event payload shared by both layouts.
func (f *fieldReader) eventData(field string) ([]byte, error) {
	size, err := f.uint32(field + "_size")
	if err != nil {
		return nil, err
	}
	if size > MaxEventDataSize {
		return nil, &DecodeError{Kind: OversizedField, Field: field, Declared: size, Max: MaxEventDataSize}
	}
	if size == 0 {
		return nil, nil
	}
	return f.bytes(size, field)
}

// DecodeLegacy reads one SHA-1 format event from r.
//
// It returns a nil record and a nil error if r is at EOF before the first byte
// of the record. Running out of input anywhere later is a Truncated error.
func DecodeLegacy(r io.Reader) (*LegacyRecord, error) {
	f := fieldReader{r: r}
	pcr, err := f.uint32("pcr_index")
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	typ, err := f.uint32("event_type")
	if err != nil {
		return nil, err
	}
	rec := &LegacyRecord{PCRIndex: pcr, Type: EventType(typ)}
	if err := f.read(rec.Digest[:], "digest"); err != nil {
		return nil, err
	}
	if rec.Data, err = f.eventData("event_data"); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeMulti reads one crypto agile event from r, sizing its digests with
// reg. A nil reg means register.TCG.
//
// It returns a nil record and a nil error if r is at EOF before the first byte
// of the record. An algorithm missing from reg is an UnknownAlgorithm error;
// the rest of the log can not be located after it.
func DecodeMulti(r io.Reader, reg register.Registry) (*MultiAlgRecord, error) {
	return decodeMulti(r, reg, false)
}

func decodeMulti(r io.Reader, reg register.Registry, allowPadding bool) (*MultiAlgRecord, error) {
	if reg == nil {
		reg = register.TCG
	}
	f := fieldReader{r: r}
	pcr, err := f.uint32("pcr_index")
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if allowPadding && pcr == paddingPCRIndex {
		return nil, errEventLogPadding
	}
	typ, err := f.uint32("event_type")
	if err != nil {
		return nil, err
	}
	count, err := f.uint32("digest_count")
	if err != nil {
		return nil, err
	}
	if count == 0 || count > MaxDigestCount {
		return nil, &DecodeError{Kind: InvalidCount, Field: "digest_count", Declared: count, Max: MaxDigestCount}
	}

	rec := &MultiAlgRecord{
		PCRIndex: pcr,
		Type:     EventType(typ),
		Digests:  make([]DigestEntry, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		algID, err := f.uint16("digest_algorithm")
		if err != nil {
			return nil, err
		}
		size, ok := reg.SizeFor(algID)
		if !ok || size == 0 {
			return nil, &DecodeError{Kind: UnknownAlgorithm, Field: "digest_algorithm", Alg: register.HashAlg(algID)}
		}
		if size > MaxDigestSize {
			return nil, &DecodeError{Kind: OversizedField, Field: "digest", Declared: size, Max: MaxDigestSize}
		}
		digest, err := f.bytes(size, "digest")
		if err != nil {
			return nil, err
		}
		rec.Digests = append(rec.Digests, DigestEntry{Alg: register.HashAlg(algID), Digest: digest})
	}

	if rec.Data, err = f.eventData("event"); err != nil {
		return nil, err
	}
	return rec, nil
}
