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

package ccel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-tcgstream/register"
	"github.com/google/go-tcgstream/sink"
	"github.com/google/go-tcgstream/tcg"
	"github.com/google/go-tcgstream/testdata"
	"github.com/google/go-tcgstream/tpmeventlog"
)

func TestParseACPITable(t *testing.T) {
	sevTable := bytes.Clone(testdata.CCELPaddedTable)
	sevTable[36] = byte(SEV)
	unknownType := bytes.Clone(testdata.CCELPaddedTable)
	unknownType[36] = 3

	tests := []struct {
		name      string
		table     []byte
		wantErr   bool
		wantTable *ACPITable
	}{
		{
			name:      "Happy Path",
			table:     testdata.CCELPaddedTable,
			wantTable: &ACPITable{CCType: TDX, LogAreaMinLength: uint64(len(testdata.CCELPaddedEventLog)), LogAreaStart: 0x7ff00000},
		},
		{
			name:      "SEV",
			table:     sevTable,
			wantTable: &ACPITable{CCType: SEV, LogAreaMinLength: uint64(len(testdata.CCELPaddedEventLog)), LogAreaStart: 0x7ff00000},
		},
		{
			name:    "Bad signature",
			table:   append([]byte("ABCD"), testdata.CCELPaddedTable[4:]...),
			wantErr: true,
		},
		{
			name:    "Bad length",
			table:   append(bytes.Clone(testdata.CCELPaddedTable), 0),
			wantErr: true,
		},
		{
			name:    "Short",
			table:   []byte{'C', 'C', 'E', 'L', 48, 0, 0, 0},
			wantErr: true,
		},
		{
			name:    "Unknown CC type",
			table:   unknownType,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseACPITable(tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseACPITable() = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantTable, got); diff != "" {
				t.Errorf("ParseACPITable() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	// The log area may be followed by unrelated memory.
	log := append(bytes.Clone(testdata.CCELPaddedEventLog), 0x00, 0x01, 0x02, 0x03)

	var c sink.Collector
	got, err := Extract(testdata.CCELPaddedTable, bytes.NewReader(log), &c, tpmeventlog.ExtractOpts{SkipNoAction: true})
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	want := &tpmeventlog.Summary{
		Decoded: testdata.CCELPaddedRecords,
		Emitted: testdata.CCELPaddedRecords - 1,
		Algs:    []register.HashAlg{register.HashSHA384},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	for _, rec := range c.Records {
		if _, ok := rec.(*tcg.MultiAlgRecord); !ok {
			t.Errorf("Extract() emitted %T, want *tcg.MultiAlgRecord", rec)
		}
	}
}

func TestExtractReportsDeclaredAlgs(t *testing.T) {
	got, err := Extract(testdata.CCELPaddedTable, bytes.NewReader(testdata.CCELPaddedEventLog), &sink.Collector{}, tpmeventlog.ExtractOpts{})
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if got.Emitted != testdata.CCELPaddedRecords {
		t.Errorf("Extract() emitted %d records, want %d", got.Emitted, testdata.CCELPaddedRecords)
	}
	if diff := cmp.Diff([]register.HashAlg{register.HashSHA384}, got.Algs); diff != "" {
		t.Errorf("Extract() algs mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTruncatedLogArea(t *testing.T) {
	table := bytes.Clone(testdata.CCELPaddedTable)
	// Shrink the log area so that it ends inside the last record.
	binary.LittleEndian.PutUint64(table[40:48], uint64(len(testdata.CCELPaddedEventLog)-300))

	got, err := Extract(table, bytes.NewReader(testdata.CCELPaddedEventLog), &sink.Collector{}, tpmeventlog.ExtractOpts{})
	if !errors.Is(err, tcg.Truncated) {
		t.Fatalf("Extract() = %v, want %v", err, tcg.Truncated)
	}
	if got.Decoded != testdata.CCELPaddedRecords-1 {
		t.Errorf("Extract() decoded %d records, want %d", got.Decoded, testdata.CCELPaddedRecords-1)
	}
}

func TestExtractRejectsNonTDX(t *testing.T) {
	table := bytes.Clone(testdata.CCELPaddedTable)
	table[36] = byte(SEV)
	if _, err := Extract(table, bytes.NewReader(testdata.CCELPaddedEventLog), &sink.Collector{}, tpmeventlog.ExtractOpts{}); err == nil {
		t.Error("Extract() of an SEV CCEL succeeded, want error")
	}
}
