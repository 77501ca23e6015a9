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

package tpmeventlog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-tcgstream/register"
	"github.com/google/go-tcgstream/sink"
	"github.com/google/go-tcgstream/tcg"
	"github.com/google/go-tcgstream/testdata"
)

func TestExtract(t *testing.T) {
	sha1AndSHA256 := []register.HashAlg{register.HashSHA1, register.HashSHA256}
	tests := []struct {
		name    string
		log     []byte
		opts    ExtractOpts
		want    Summary
		wantErr error
	}{
		{
			name: "crypto agile",
			log:  testdata.CryptoAgileEventLog,
			want: Summary{Decoded: testdata.CryptoAgileRecords, Emitted: testdata.CryptoAgileRecords, Algs: sha1AndSHA256},
		},
		{
			name: "crypto agile without no action events",
			log:  testdata.CryptoAgileEventLog,
			opts: ExtractOpts{SkipNoAction: true, UseSpecIDSizes: true},
			want: Summary{
				Decoded: testdata.CryptoAgileRecords,
				Emitted: testdata.CryptoAgileRecords - testdata.CryptoAgileNoActionRecords,
				Algs:    sha1AndSHA256,
			},
		},
		{
			name:    "truncated",
			log:     testdata.CryptoAgileTruncatedEventLog,
			want:    Summary{Decoded: testdata.CryptoAgileTruncatedRecords, Emitted: testdata.CryptoAgileTruncatedRecords, Algs: sha1AndSHA256},
			wantErr: tcg.Truncated,
		},
		{
			name: "SHA-1 only detected",
			log:  testdata.SHA1OnlyEventLog,
			opts: ExtractOpts{DetectSHA1Log: true},
			want: Summary{Decoded: testdata.SHA1OnlyRecords, Emitted: testdata.SHA1OnlyRecords, Algs: []register.HashAlg{register.HashSHA1}},
		},
		{
			name:    "SHA-1 only read as crypto agile",
			log:     testdata.SHA1OnlyEventLog,
			want:    Summary{Decoded: 1, Emitted: 1, Algs: []register.HashAlg{register.HashSHA1}},
			wantErr: tcg.InvalidCount,
		},
		{
			name: "padded CCEL",
			log:  testdata.CCELPaddedEventLog,
			opts: ExtractOpts{AllowPadding: true, UseSpecIDSizes: true},
			want: Summary{Decoded: testdata.CCELPaddedRecords, Emitted: testdata.CCELPaddedRecords, Algs: []register.HashAlg{register.HashSHA384}},
		},
		{
			name:    "padded CCEL without padding support",
			log:     testdata.CCELPaddedEventLog,
			want:    Summary{Decoded: testdata.CCELPaddedRecords, Emitted: testdata.CCELPaddedRecords, Algs: []register.HashAlg{register.HashSHA384}},
			wantErr: tcg.InvalidCount,
		},
		{
			name: "empty",
			log:  nil,
			want: Summary{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = testr.New(t)
			var c sink.Collector
			got, err := Extract(bytes.NewReader(tt.log), &c, tt.opts)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Extract() failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(&tt.want, got); diff != "" {
				t.Errorf("Extract() summary mismatch (-want +got):\n%s", diff)
			}
			if len(c.Records) != got.Emitted {
				t.Errorf("sink got %d records, summary reports %d", len(c.Records), got.Emitted)
			}
		})
	}
}

func TestExtractRecords(t *testing.T) {
	var c sink.Collector
	if _, err := Extract(bytes.NewReader(testdata.CryptoAgileEventLog), &c, ExtractOpts{SkipNoAction: true}); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	var separators []uint32
	for _, rec := range c.Records {
		if rec.EventType() == tcg.Separator {
			separators = append(separators, rec.PCR())
		}
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3, 4, 5, 6, 7}, separators); diff != "" {
		t.Errorf("separator PCRs mismatch (-want +got):\n%s", diff)
	}

	// Re-encoding the records reproduces the log after its no action events.
	raw, err := tcg.AppendRecords(nil, c.Records...)
	if err != nil {
		t.Fatalf("AppendRecords() failed: %v", err)
	}
	if !bytes.HasSuffix(testdata.CryptoAgileEventLog, raw) {
		t.Errorf("re-encoded records are not a suffix of the original log")
	}
}

func TestExtractSinkFailure(t *testing.T) {
	errStop := errors.New("stop")
	n := 0
	s := tcg.SinkFunc(func(tcg.Record) error {
		n++
		if n == 3 {
			return errStop
		}
		return nil
	})
	got, err := Extract(bytes.NewReader(testdata.CryptoAgileEventLog), s, ExtractOpts{})
	var sinkErr *tcg.SinkError
	if !errors.As(err, &sinkErr) || !errors.Is(err, errStop) {
		t.Fatalf("Extract() = %v, want *tcg.SinkError wrapping %v", err, errStop)
	}
	if sinkErr.Index != 2 {
		t.Errorf("SinkError.Index = %d, want 2", sinkErr.Index)
	}
	if got.Decoded != 3 || got.Emitted != 2 {
		t.Errorf("Extract() = %+v, want 3 decoded and 2 emitted", got)
	}
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary_bios_measurements")
	if err := os.WriteFile(path, testdata.CryptoAgileEventLog, 0o600); err != nil {
		t.Fatal(err)
	}
	var c sink.Collector
	got, err := ExtractFile(path, &c, ExtractOpts{})
	if err != nil {
		t.Fatalf("ExtractFile() failed: %v", err)
	}
	if got.Decoded != testdata.CryptoAgileRecords {
		t.Errorf("ExtractFile() decoded %d records, want %d", got.Decoded, testdata.CryptoAgileRecords)
	}

	if _, err := ExtractFile(filepath.Join(t.TempDir(), "missing"), &c, ExtractOpts{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ExtractFile() of a missing file = %v, want %v", err, os.ErrNotExist)
	}
}
