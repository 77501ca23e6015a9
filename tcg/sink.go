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

package tcg

// Sink receives the records of a log in order. Returning an error ends the
// decode session.
type Sink interface {
	Accept(rec Record) error
}

// SinkFunc adapts an ordinary function to a Sink.
type SinkFunc func(rec Record) error

// Accept calls f(rec).
func (f SinkFunc) Accept(rec Record) error {
	return f(rec)
}
