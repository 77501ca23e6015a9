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

// Package ccel reads Confidential Computing event logs. It only supports the
// CCEL based on the TCG crypto-agile event log (including the "Spec ID
// Event03" signature).
package ccel

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/go-tcgstream/tcg"
	"github.com/google/go-tcgstream/tpmeventlog"
)

// Defined in Guest Hypervisor Communication Interface (GHCI) for Intel TDX 1.0.
// https://www.intel.com/content/www/us/en/content-details/726790/guest-host-communication-interface-ghci-for-intel-trust-domain-extensions-intel-tdx.html
const (
	// See Section 4.3.3 CC-Event Log
	ACPITableSig     = "CCEL"
	ACPITableMinSize = 56
)

// CCType describes the Confidential Computing type for the Confidential
// Computing event log.
type CCType uint8

// Known CC types.
// See https://uefi.org/specs/ACPI/6.5/05_ACPI_Software_Programming_Model.html#cc-event-log-acpi-table.
const (
	Reserved CCType = iota
	SEV
	TDX
)

func (t CCType) String() string {
	switch t {
	case Reserved:
		return "Reserved"
	case SEV:
		return "SEV"
	case TDX:
		return "TDX"
	}
	return fmt.Sprintf("CCType(%d)", uint8(t))
}

// ACPITable represents the confidential computing (CC) event log ACPI table.
type ACPITable struct {
	CCType    CCType
	CCSubType uint8
	// LogAreaMinLength is the size of the event log area, padding included.
	LogAreaMinLength uint64
	// LogAreaStart is the guest physical address of the event log area.
	LogAreaStart uint64
}

// ParseACPITable parses the CCEL ACPI table, as found in
// /sys/firmware/acpi/tables/CCEL.
func ParseACPITable(acpiTableFile []byte) (*ACPITable, error) {
	if len(acpiTableFile) < ACPITableMinSize {
		return nil, fmt.Errorf("received a smaller CCEL ACPI Table size (%v) than expected (%v)", len(acpiTableFile), ACPITableMinSize)
	}
	if sig := string(acpiTableFile[0:4]); sig != ACPITableSig {
		return nil, fmt.Errorf("received an invalid signature (%q) for CCEL ACPI Table", sig)
	}
	if tableLen := binary.LittleEndian.Uint32(acpiTableFile[4:8]); tableLen != uint32(len(acpiTableFile)) {
		return nil, fmt.Errorf("received mismatch CCEL ACPI table length: got %v, expected %v", tableLen, len(acpiTableFile))
	}
	ccType := CCType(acpiTableFile[36])
	if ccType > TDX {
		return nil, fmt.Errorf("received unknown CC type: %d", uint8(ccType))
	}
	return &ACPITable{
		CCType:           ccType,
		CCSubType:        acpiTableFile[37],
		LogAreaMinLength: binary.LittleEndian.Uint64(acpiTableFile[40:48]),
		LogAreaStart:     binary.LittleEndian.Uint64(acpiTableFile[48:56]),
	}, nil
}

// Extract decodes the CCEL in r, described by the ACPI table acpiTableFile,
// and hands each record to s.
//
// At most LogAreaMinLength bytes of r are read. CCELs have trailing padding at
// the end of the log area, and carry a Spec ID Event sizing their digests, so
// opts.AllowPadding and opts.UseSpecIDSizes are always set.
func Extract(acpiTableFile []byte, r io.Reader, s tcg.Sink, opts tpmeventlog.ExtractOpts) (*tpmeventlog.Summary, error) {
	table, err := ParseACPITable(acpiTableFile)
	if err != nil {
		return &tpmeventlog.Summary{}, fmt.Errorf("failed to parse CCEL ACPI Table file: %v", err)
	}
	if table.CCType != TDX {
		return &tpmeventlog.Summary{}, fmt.Errorf("only TDX Confidential Computing event logs are supported: received %v", table.CCType)
	}
	opts.AllowPadding = true
	opts.UseSpecIDSizes = true
	return tpmeventlog.Extract(io.LimitReader(r, int64(table.LogAreaMinLength)), s, opts)
}

// ExtractFile is Extract for the ACPI table and event log at the given paths.
func ExtractFile(tablePath, logPath string, s tcg.Sink, opts tpmeventlog.ExtractOpts) (*tpmeventlog.Summary, error) {
	table, err := os.ReadFile(tablePath)
	if err != nil {
		return &tpmeventlog.Summary{}, fmt.Errorf("failed to read CCEL ACPI Table file: %w", err)
	}
	f, err := os.Open(logPath)
	if err != nil {
		return &tpmeventlog.Summary{}, fmt.Errorf("failed to open CCEL: %w", err)
	}
	defer f.Close()
	return Extract(table, f, s, opts)
}
