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

import "github.com/google/go-tcgstream/register"

// Record is a single decoded measurement log event. It is implemented only by
// *LegacyRecord and *MultiAlgRecord; use a type switch to get at the layout
// specific fields.
//
// Nothing in a Record has been verified. The PCR index, type, digests and data
// are exactly what the log claims.
type Record interface {
	// PCR is the index of the PCR the event claims to have been extended into.
	PCR() uint32
	// EventType is the untrusted type of the event.
	EventType() EventType
	// EventData is the opaque event payload.
	EventData() []byte
	// DigestEntries lists the event's (algorithm, digest) pairs in log order.
	DigestEntries() []DigestEntry

	isRecord()
}

// LegacyRecord is a TPM 1.2 style event with a single SHA-1 digest.
// See "5.1 SHA1 Event Log Entry Format".
// https://trustedcomputinggroup.org/wp-content/uploads/EFI-Protocol-Specification-rev13-160330final.pdf#page=15
type LegacyRecord struct {
	PCRIndex uint32
	Type     EventType
	Digest   [LegacyDigestSize]byte
	// Data holds at most MaxEventDataSize bytes.
	Data []byte
}

// DigestEntry is one (algorithm, digest) pair of a crypto agile event. The
// length of Digest always matches the registry size for Alg.
type DigestEntry struct {
	Alg    register.HashAlg
	Digest []byte
}

// MultiAlgRecord is a TPM 2.0 crypto agile event carrying one digest per
// active PCR bank.
// See "5.2 Crypto Agile Log Entry Format".
// https://trustedcomputinggroup.org/wp-content/uploads/EFI-Protocol-Specification-rev13-160330final.pdf#page=15
type MultiAlgRecord struct {
	PCRIndex uint32
	Type     EventType
	// Digests holds between 1 and MaxDigestCount entries, in log order.
	Digests []DigestEntry
	// Data holds at most MaxEventDataSize bytes.
	Data []byte
}

// PCR returns the PCR index.
func (e *LegacyRecord) PCR() uint32 { return e.PCRIndex }

// EventType returns the untrusted event type.
func (e *LegacyRecord) EventType() EventType { return e.Type }

// EventData returns the event payload.
func (e *LegacyRecord) EventData() []byte { return e.Data }

// DigestEntries returns the SHA-1 digest as the single entry.
func (e *LegacyRecord) DigestEntries() []DigestEntry {
	return []DigestEntry{{Alg: register.HashSHA1, Digest: e.Digest[:]}}
}

func (*LegacyRecord) isRecord() {}

// PCR returns the PCR index.
func (e *MultiAlgRecord) PCR() uint32 { return e.PCRIndex }

// EventType returns the untrusted event type.
func (e *MultiAlgRecord) EventType() EventType { return e.Type }

// EventData returns the event payload.
func (e *MultiAlgRecord) EventData() []byte { return e.Data }

// DigestEntries returns the digests in log order.
func (e *MultiAlgRecord) DigestEntries() []DigestEntry { return e.Digests }

func (*MultiAlgRecord) isRecord() {}

// Digest returns the first digest recorded for alg.
func (e *MultiAlgRecord) Digest(alg register.HashAlg) ([]byte, bool) {
	for _, d := range e.Digests {
		if d.Alg == alg {
			return d.Digest, true
		}
	}
	return nil, false
}
