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

// Package sink provides tcg.Sink implementations for decoded measurement
// logs.
package sink

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/google/go-tcgstream/tcg"
	textunicode "golang.org/x/text/encoding/unicode"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var utf16le = textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM)

// Collector keeps every accepted record in memory, in log order.
type Collector struct {
	Records []tcg.Record
}

// Accept appends rec.
func (c *Collector) Accept(rec tcg.Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// Text writes one human readable line per record.
type Text struct {
	W io.Writer

	n int
}

// Accept writes rec as a single line of the form
//
//	<n> pcr=<index> type=<type> size=<data size> <alg>=<hex digest>...
func (t *Text) Accept(rec tcg.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d pcr=%d type=%v size=%d", t.n, rec.PCR(), rec.EventType(), len(rec.EventData()))
	for _, d := range rec.DigestEntries() {
		fmt.Fprintf(&b, " %v=%x", d.Alg, d.Digest)
	}
	if desc, ok := describe(rec); ok {
		fmt.Fprintf(&b, " data=%q", desc)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(t.W, b.String()); err != nil {
		return err
	}
	t.n++
	return nil
}

// describe returns the event data of rec as text, for the event types whose
// data is a string.
func describe(rec tcg.Record) (string, bool) {
	data := rec.EventData()
	switch rec.EventType() {
	case tcg.SCRTMVersion:
		// UCS-2 string, usually NUL terminated.
		s, err := utf16le.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return printable(strings.TrimRight(string(s), "\x00"))
	case tcg.Action, tcg.EFIAction, tcg.Ipl, tcg.PostCode:
		return printable(strings.TrimRight(string(data), "\x00"))
	}
	return "", false
}

func printable(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return s, true
}

// BIOSEntry writes each record as a "biosentry" attestation client message,
// one JSON object per line:
//
//	{"command":"biosentry","hostname":"...","nonce":"...","event1":"<hex>"}
//
// The event value is the hex encoded record in its wire format. Events are
// numbered from 1 in the order they are accepted.
type BIOSEntry struct {
	Hostname string
	Nonce    string
	W        io.Writer

	n int
}

// Accept writes the message for rec.
func (s *BIOSEntry) Accept(rec tcg.Record) error {
	raw, err := tcg.AppendRecords(nil, rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	fields := map[string]any{
		"command":  "biosentry",
		"hostname": s.Hostname,
		"nonce":    s.Nonce,
	}
	fields[fmt.Sprintf("event%d", s.n+1)] = hex.EncodeToString(raw)
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return err
	}
	out, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := s.W.Write(append(out, '\n')); err != nil {
		return err
	}
	s.n++
	return nil
}
