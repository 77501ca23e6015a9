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

// Package register contains the digest algorithm registry used to size the
// digests carried by crypto agile measurement log events.
package register

import (
	"crypto"
	"fmt"

	// Ensure hashes are available.
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/google/go-tpm/legacy/tpm2"
	tpm2direct "github.com/google/go-tpm/tpm2"
)

// HashAlg identifies a hashing algorithm by its TCG Algorithm Registry ID.
type HashAlg uint16

// Hash algorithms known to the default registry.
var (
	HashSHA1    = HashAlg(tpm2.AlgSHA1)
	HashSHA256  = HashAlg(tpm2.AlgSHA256)
	HashSHA384  = HashAlg(tpm2.AlgSHA384)
	HashSHA512  = HashAlg(tpm2.AlgSHA512)
	HashSM3_256 = HashAlg(tpm2direct.TPMAlgSM3256)
)

// sm3DigestSize is the SM3-256 digest size. Go has no crypto.Hash for SM3.
const sm3DigestSize = 32

// CryptoHash turns the hash algo into a crypto.Hash. It returns 0 for
// algorithms without a Go implementation, such as SM3-256.
func (a HashAlg) CryptoHash() crypto.Hash {
	h, err := tpm2.Algorithm(a).Hash()
	if err != nil {
		return 0
	}
	return h
}

// GoTPMAlg returns the go-tpm definition of this algorithm, based on the
// TCG Algorithm Registry.
func (a HashAlg) GoTPMAlg() tpm2.Algorithm {
	return tpm2.Algorithm(a)
}

// Size returns the digest size in bytes for the algorithm, or 0 if the size
// is not known.
func (a HashAlg) Size() int {
	if a == HashSM3_256 {
		return sm3DigestSize
	}
	if h := a.CryptoHash(); h != 0 {
		return h.Size()
	}
	return 0
}

// String returns a human-friendly representation of the hash algorithm.
func (a HashAlg) String() string {
	switch a {
	case HashSHA1:
		return "SHA1"
	case HashSHA256:
		return "SHA256"
	case HashSHA384:
		return "SHA384"
	case HashSHA512:
		return "SHA512"
	case HashSM3_256:
		return "SM3_256"
	}
	return fmt.Sprintf("HashAlg<0x%04x>", uint16(a))
}
