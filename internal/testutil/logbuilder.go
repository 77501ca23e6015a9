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

// Package testutil builds raw measurement logs for tests. It writes the wire
// format directly so that decoder tests do not depend on the encoder.
package testutil

import (
	"bytes"
	"encoding/binary"
)

// Digest is one (algorithm, digest) pair of a crypto agile event.
type Digest struct {
	Alg  uint16
	Data []byte
}

// LogBuilder accumulates events in wire format.
type LogBuilder struct {
	buf bytes.Buffer
}

func (b *LogBuilder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *LogBuilder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }

// Legacy appends a SHA-1 format event. digest is padded or cut to 20 bytes.
func (b *LogBuilder) Legacy(pcr, typ uint32, digest, data []byte) *LogBuilder {
	b.u32(pcr)
	b.u32(typ)
	d := make([]byte, 20)
	copy(d, digest)
	b.buf.Write(d)
	b.u32(uint32(len(data)))
	b.buf.Write(data)
	return b
}

// Multi appends a crypto agile event.
func (b *LogBuilder) Multi(pcr, typ uint32, digests []Digest, data []byte) *LogBuilder {
	b.u32(pcr)
	b.u32(typ)
	b.u32(uint32(len(digests)))
	for _, d := range digests {
		b.u16(d.Alg)
		b.buf.Write(d.Data)
	}
	b.u32(uint32(len(data)))
	b.buf.Write(data)
	return b
}

// U32 appends a raw little-endian uint32, for hand made corrupt events.
func (b *LogBuilder) U32(v uint32) *LogBuilder {
	b.u32(v)
	return b
}

// U16 appends a raw little-endian uint16.
func (b *LogBuilder) U16(v uint16) *LogBuilder {
	b.u16(v)
	return b
}

// Raw appends bytes verbatim.
func (b *LogBuilder) Raw(p []byte) *LogBuilder {
	b.buf.Write(p)
	return b
}

// Bytes returns a copy of the log built so far.
func (b *LogBuilder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Len returns the size of the log built so far.
func (b *LogBuilder) Len() int {
	return b.buf.Len()
}

// SpecIDEventData returns a "Spec ID Event03" payload declaring algs, given
// as alternating algorithm IDs and digest sizes.
func SpecIDEventData(algs ...uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString("Spec ID Event03\x00")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // platform class
	buf.Write([]byte{0, 2, 0, 2})                      // minor, major, errata, uintn size
	binary.Write(&buf, binary.LittleEndian, uint32(len(algs)/2))
	for i := 0; i+1 < len(algs); i += 2 {
		binary.Write(&buf, binary.LittleEndian, algs[i])
		binary.Write(&buf, binary.LittleEndian, algs[i+1])
	}
	buf.WriteByte(0) // vendor info size
	return buf.Bytes()
}

// Fill returns n bytes all set to v.
func Fill(n int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n)
}
