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

// The tcglogdump binary decodes a TPM measurement log and prints its records.
//
//	tcglogdump [flags] /sys/kernel/security/tpm0/binary_bios_measurements
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/go-tcgstream/ccel"
	"github.com/google/go-tcgstream/cmd"
	"github.com/google/go-tcgstream/sink"
	"github.com/google/go-tcgstream/tcg"
	"github.com/google/go-tcgstream/tpmeventlog"
	"k8s.io/klog/v2"
)

var (
	format       = flag.String("format", "text", "Output format. One of: text, biosentry")
	hostname     = flag.String("hostname", "", "Host name reported in biosentry messages")
	nonce        = flag.String("nonce", "", "Nonce reported in biosentry messages")
	skipNoAction = flag.Bool("skip_no_action", false, "If true, EV_NO_ACTION events are decoded but not printed")
	allowPadding = flag.Bool("allow_padding", false, "If true, 0xFFFFFFFF padding ends the log, as in a Confidential Computing event log")
	specIDSizes  = flag.Bool("spec_id_sizes", false, "If true, digest sizes come from the log's Spec ID Event")
	detectSHA1   = flag.Bool("detect_sha1", false, "If true, logs without a Spec ID Event are read as SHA-1 only logs")
	ccelTable    = flag.String("ccel_table", "", "If set, the log is a Confidential Computing event log described by this CCEL ACPI table file")

	configFile = flag.String("config", "", "Config file containing flags, file contents can be overridden by command line flags")
)

func newSink(w io.Writer) (tcg.Sink, error) {
	switch *format {
	case "text":
		return &sink.Text{W: w}, nil
	case "biosentry":
		if *hostname == "" {
			h, err := os.Hostname()
			if err != nil {
				return nil, fmt.Errorf("--hostname not set and host name lookup failed: %v", err)
			}
			*hostname = h
		}
		return &sink.BIOSEntry{Hostname: *hostname, Nonce: *nonce, W: w}, nil
	}
	return nil, fmt.Errorf("unknown --format %q", *format)
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *configFile != "" {
		if err := cmd.ParseFlagFile(*configFile); err != nil {
			klog.Exitf("Failed to load flags from config file %q: %s", *configFile, err)
		}
	}
	if flag.NArg() != 1 {
		klog.Exitf("Usage: %s [flags] <measurement log>", os.Args[0])
	}
	path := flag.Arg(0)

	s, err := newSink(os.Stdout)
	if err != nil {
		klog.Exit(err)
	}
	opts := tpmeventlog.ExtractOpts{
		SkipNoAction:   *skipNoAction,
		AllowPadding:   *allowPadding,
		UseSpecIDSizes: *specIDSizes,
		DetectSHA1Log:  *detectSHA1,
		Logger:         klog.Background(),
	}
	var sum *tpmeventlog.Summary
	if *ccelTable != "" {
		sum, err = ccel.ExtractFile(*ccelTable, path, s, opts)
	} else {
		sum, err = tpmeventlog.ExtractFile(path, s, opts)
	}
	if err != nil {
		klog.Exitf("Failed to decode %s after %d records: %v", path, sum.Decoded, err)
	}
	klog.V(1).Infof("Decoded %d records from %s, printed %d, digest algorithms %v", sum.Decoded, path, sum.Emitted, sum.Algs)
}
