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

package register

import (
	"fmt"
	"sort"
)

// Registry maps a TCG algorithm ID to the size in bytes of its digests.
// Implementations must be pure lookups.
type Registry interface {
	SizeFor(alg uint16) (uint32, bool)
}

// RegistryFunc adapts an ordinary function to a Registry.
type RegistryFunc func(alg uint16) (uint32, bool)

// SizeFor calls f(alg).
func (f RegistryFunc) SizeFor(alg uint16) (uint32, bool) {
	return f(alg)
}

// Sizes is a Registry backed by a fixed table.
type Sizes map[HashAlg]uint32

// SizeFor returns the digest size recorded for alg.
func (s Sizes) SizeFor(alg uint16) (uint32, bool) {
	size, ok := s[HashAlg(alg)]
	return size, ok
}

// Algs returns the algorithms in the table, ordered by ID.
func (s Sizes) Algs() []HashAlg {
	algs := make([]HashAlg, 0, len(s))
	for alg := range s {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// NewRegistry returns a registry holding the standard digest sizes of algs.
func NewRegistry(algs ...HashAlg) (Sizes, error) {
	s := make(Sizes, len(algs))
	for _, alg := range algs {
		size := alg.Size()
		if size == 0 {
			return nil, fmt.Errorf("no known digest size for %v", alg)
		}
		s[alg] = uint32(size)
	}
	return s, nil
}

// TCG is the default registry covering the hash algorithms found in PC
// Client firmware logs.
var TCG = Sizes{
	HashSHA1:    20,
	HashSHA256:  32,
	HashSHA384:  48,
	HashSHA512:  64,
	HashSM3_256: 32,
}
