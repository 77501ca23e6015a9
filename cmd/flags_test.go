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

package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags(t *testing.T) {
	var format, hostname string
	flag.StringVar(&format, "format", "", "")
	flag.StringVar(&hostname, "hostname", "", "")

	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)

	tests := []struct {
		name         string
		contents     string
		env          map[string]string
		cliArgs      []string
		wantErr      string
		wantFormat   string
		wantHostname string
	}{
		{
			name:         "two flags per line",
			contents:     "-format biosentry -hostname node-1",
			wantFormat:   "biosentry",
			wantHostname: "node-1",
		},
		{
			name:         "one flag per line, with line continuation",
			contents:     "-format biosentry \\\n-hostname node-1",
			wantFormat:   "biosentry",
			wantHostname: "node-1",
		},
		{
			name:         "quoted value",
			contents:     "-format text -hostname 'rack 4 node 1'",
			wantFormat:   "text",
			wantHostname: "rack 4 node 1",
		},
		{
			name:         "one flag overridden by command-line",
			contents:     "-format biosentry\n-hostname node-1",
			cliArgs:      []string{"-hostname", "node-2"},
			wantFormat:   "biosentry",
			wantHostname: "node-2",
		},
		{
			name:         "environment variable",
			contents:     "-format text -hostname $TCGSTREAM_HOST",
			env:          map[string]string{"TCGSTREAM_HOST": "from-env"},
			wantFormat:   "text",
			wantHostname: "from-env",
		},
		{
			name:     "undefined flag",
			contents: "-format text -nonce 7",
			wantErr:  "flag provided but not defined: -nonce",
		},
		{
			name:     "unclosed quotation",
			contents: "-format 'text",
			wantErr:  "flag file contains unclosed quotations",
		},
	}

	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()
	initialArgs := os.Args[:1]
	for _, tc := range tests {
		format, hostname = "", ""
		os.Args = append(append([]string(nil), initialArgs...), tc.cliArgs...)
		for k, v := range tc.env {
			t.Setenv(k, v)
		}

		if err := parseFlags(tc.contents); err != nil {
			if err.Error() != tc.wantErr {
				t.Errorf("%v: parseFlags() = %q, want %q", tc.name, err, tc.wantErr)
			}
			continue
		}
		if tc.wantErr != "" {
			t.Errorf("%v: parseFlags() succeeded, want %q", tc.name, tc.wantErr)
			continue
		}

		if format != tc.wantFormat {
			t.Errorf("%v: flag 'format' = %q, want %q", tc.name, format, tc.wantFormat)
		}
		if hostname != tc.wantHostname {
			t.Errorf("%v: flag 'hostname' = %q, want %q", tc.name, hostname, tc.wantHostname)
		}
	}
}

func TestParseFlagFileMissing(t *testing.T) {
	if err := ParseFlagFile(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Error("ParseFlagFile() for a missing file succeeded, want error")
	}
}
