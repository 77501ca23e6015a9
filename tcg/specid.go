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

	"github.com/google/go-tcgstream/register"
)

// SpecIDEvent is the TCG_EfiSpecIDEventStruct carried by the EV_NO_ACTION
// event at the start of a crypto agile log. It declares the digest algorithms
// used by the rest of the log.
type SpecIDEvent struct {
	PlatformClass uint32
	VersionMinor  uint8
	VersionMajor  uint8
	Errata        uint8
	UintnSize     uint8
	Algs          []AlgSize
	VendorInfo    []byte
}

// AlgSize is a declared (algorithm, digest size) pair.
type AlgSize struct {
	ID   uint16
	Size uint16
}

// Expected values for various Spec ID Event fields.
// https://trustedcomputinggroup.org/wp-content/uploads/EFI-Protocol-Specification-rev13-160330final.pdf#page=19
var wantSignature = [16]byte{0x53, 0x70,
	0x65, 0x63, 0x20, 0x49,
	0x44, 0x20, 0x45, 0x76,
	0x65, 0x6e, 0x74, 0x30,
	0x33, 0x00} // "Spec ID Event03\0"

const (
	wantMajor = 2
	wantMinor = 0
)

type specIDEventHeader struct {
	Signature     [16]byte
	PlatformClass uint32
	VersionMinor  uint8
	VersionMajor  uint8
	Errata        uint8
	UintnSize     uint8
	NumAlgs       uint32
}

// IsSpecIDEvent reports whether rec claims to be a Spec ID Event. It only
// checks the event type and signature.
func IsSpecIDEvent(rec Record) bool {
	return rec.EventType() == NoAction && bytes.HasPrefix(rec.EventData(), wantSignature[:])
}

// ParseSpecIDEvent parses a TCG_EfiSpecIDEventStruct structure.
//
// https://trustedcomputinggroup.org/wp-content/uploads/EFI-Protocol-Specification-rev13-160330final.pdf#page=18
func ParseSpecIDEvent(b []byte) (*SpecIDEvent, error) {
	r := bytes.NewReader(b)
	var header specIDEventHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading event header: %w: %X", err, b)
	}
	if header.Signature != wantSignature {
		return nil, fmt.Errorf("invalid spec id signature: %x", header.Signature)
	}
	if header.VersionMajor != wantMajor {
		return nil, fmt.Errorf("invalid spec major version, got %02x, wanted %02x",
			header.VersionMajor, wantMajor)
	}
	if header.VersionMinor != wantMinor {
		return nil, fmt.Errorf("invalid spec minor version, got %02x, wanted %02x",
			header.VersionMinor, wantMinor)
	}
	if header.NumAlgs == 0 {
		return nil, fmt.Errorf("spec id event declares no algorithms")
	}
	if uint64(header.NumAlgs)*uint64(binary.Size(AlgSize{})) > uint64(r.Len()) {
		return nil, fmt.Errorf("spec id event declares %d algorithms but only %d bytes remain", header.NumAlgs, r.Len())
	}

	e := SpecIDEvent{
		PlatformClass: header.PlatformClass,
		VersionMinor:  header.VersionMinor,
		VersionMajor:  header.VersionMajor,
		Errata:        header.Errata,
		UintnSize:     header.UintnSize,
		Algs:          make([]AlgSize, 0, header.NumAlgs),
	}
	for i := 0; i < int(header.NumAlgs); i++ {
		var specAlg AlgSize
		if err := binary.Read(r, binary.LittleEndian, &specAlg); err != nil {
			return nil, fmt.Errorf("reading algorithm: %v", err)
		}
		e.Algs = append(e.Algs, specAlg)
	}

	var vendorInfoSize uint8
	if err := binary.Read(r, binary.LittleEndian, &vendorInfoSize); err != nil {
		return nil, fmt.Errorf("reading vender info size: %v", err)
	}
	if r.Len() != int(vendorInfoSize) {
		return nil, fmt.Errorf("reading vendor info, expected %d remaining bytes, got %d", vendorInfoSize, r.Len())
	}
	if vendorInfoSize > 0 {
		e.VendorInfo = make([]byte, vendorInfoSize)
		copy(e.VendorInfo, b[len(b)-int(vendorInfoSize):])
	}
	return &e, nil
}

// Registry returns a digest registry holding exactly the algorithms the event
// declares. Declared sizes must be non-zero, no larger than MaxDigestSize, and
// agree with register.TCG for algorithms it knows.
func (e *SpecIDEvent) Registry() (register.Sizes, error) {
	sizes := make(register.Sizes, len(e.Algs))
	for _, alg := range e.Algs {
		if alg.Size == 0 || alg.Size > MaxDigestSize {
			return nil, fmt.Errorf("algorithm 0x%04x: declared digest size %d outside [1, %d]", alg.ID, alg.Size, MaxDigestSize)
		}
		if want, ok := register.TCG.SizeFor(alg.ID); ok && want != uint32(alg.Size) {
			return nil, fmt.Errorf("algorithm %v: declared digest size %d, want %d", register.HashAlg(alg.ID), alg.Size, want)
		}
		sizes[register.HashAlg(alg.ID)] = uint32(alg.Size)
	}
	return sizes, nil
}
