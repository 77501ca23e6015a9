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

// Package testdata holds synthetic measurement logs for tests.
package testdata

import _ "embed" // Necessary to use go:embed

// Raw binary TCG measurement logs.
var (
	// CryptoAgileEventLog is a SHA-1/SHA-256 log: a Spec ID Event, a
	// StartupLocality event and 14 firmware and boot events.
	//go:embed eventlogs/tcg/crypto-agile.bin
	CryptoAgileEventLog []byte
	// CryptoAgileTruncatedEventLog is CryptoAgileEventLog cut 10 bytes into
	// its seventh record.
	//go:embed eventlogs/tcg/crypto-agile-truncated.bin
	CryptoAgileTruncatedEventLog []byte
	// SHA1OnlyEventLog has 10 TPM 1.2 style records and no Spec ID Event.
	//go:embed eventlogs/tcg/sha1-only.bin
	SHA1OnlyEventLog []byte
	// CCELPaddedEventLog is a SHA-384 log of 4 records followed by 0xFF
	// padding, as found in a Confidential Computing Event Log.
	//go:embed eventlogs/tcg/ccel-padded.bin
	CCELPaddedEventLog []byte
	// CCELPaddedTable is a TDX CCEL ACPI table describing CCELPaddedEventLog.
	//go:embed eventlogs/tcg/ccel-padded.table.bin
	CCELPaddedTable []byte
)

// Record counts of the logs above.
const (
	CryptoAgileRecords          = 16
	CryptoAgileNoActionRecords  = 2
	CryptoAgileTruncatedRecords = 6
	SHA1OnlyRecords             = 10
	CCELPaddedRecords           = 4
)
