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

// Package tpmeventlog streams PC Client TPM measurement logs from files and
// readers into a tcg.Sink.
// It supports both the SHA-1 only and crypto agile log formats.
package tpmeventlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/google/go-tcgstream/register"
	"github.com/google/go-tcgstream/tcg"
)

// ExtractOpts gives options for extracting records from a measurement log.
type ExtractOpts struct {
	// SkipNoAction keeps EV_NO_ACTION events from reaching the sink.
	SkipNoAction bool
	// AllowPadding ends the log at 0xFFFFFFFF padding instead of failing.
	AllowPadding bool
	// UseSpecIDSizes sizes digests with the log's Spec ID Event.
	UseSpecIDSizes bool
	// DetectSHA1Log reads logs without a Spec ID Event as SHA-1 only logs.
	DetectSHA1Log bool
	// Logger defaults to logr.Discard().
	Logger logr.Logger
}

func (o ExtractOpts) readerOpts() tcg.ReaderOpts {
	return tcg.ReaderOpts{
		SkipNoAction:   o.SkipNoAction,
		AllowPadding:   o.AllowPadding,
		UseSpecIDSizes: o.UseSpecIDSizes,
		DetectSHA1Log:  o.DetectSHA1Log,
		Logger:         o.Logger,
	}
}

// Summary describes an extraction.
type Summary struct {
	// Decoded counts every decoded record, including suppressed ones.
	Decoded int
	// Emitted counts the records the sink accepted.
	Emitted int
	// Algs lists the digest algorithms of the emitted records, ordered by
	// algorithm ID. The placeholder SHA-1 digest of a Spec ID Event is not
	// counted.
	Algs []register.HashAlg
}

// Extract decodes the measurement log in r and hands each record to s.
//
// The returned Summary is never nil. In the case of a malformed log or a sink
// failure, err will be non-nil and the Summary reports how far the log was
// read. Callers can look for individual errors using `errors.Is` and
// `errors.As`.
func Extract(r io.Reader, s tcg.Sink, opts ExtractOpts) (*Summary, error) {
	sum := &Summary{}
	algs := map[register.HashAlg]bool{}
	counting := tcg.SinkFunc(func(rec tcg.Record) error {
		if err := s.Accept(rec); err != nil {
			return err
		}
		sum.Emitted++
		if tcg.IsSpecIDEvent(rec) {
			return nil
		}
		for _, d := range rec.DigestEntries() {
			algs[d.Alg] = true
		}
		return nil
	})

	rd := tcg.NewReader(r, opts.readerOpts())
	err := rd.Drain(counting)
	sum.Decoded = rd.Decoded()
	for alg := range algs {
		sum.Algs = append(sum.Algs, alg)
	}
	sort.Slice(sum.Algs, func(i, j int) bool { return sum.Algs[i] < sum.Algs[j] })

	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	log.V(1).Info("extracted measurement log", "decoded", sum.Decoded, "emitted", sum.Emitted, "algs", sum.Algs)
	return sum, err
}

// ExtractFile is Extract for the measurement log at path.
func ExtractFile(path string, s tcg.Sink, opts ExtractOpts) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Summary{}, fmt.Errorf("failed to open measurement log: %w", err)
	}
	defer f.Close()
	return Extract(bufio.NewReader(f), s, opts)
}
