// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"github.com/walteh/gridxfer/pkg/state"
)

// 🎯 Candidate is a file offered to an engine
type Candidate interface {
	// SourcePath is where the bytes live
	SourcePath() string
	// Known returns the already computed metadata, if any
	Known() (state.FileRecord, bool)
}

// FreshPath is a path whose size and checksum are still unknown.
type FreshPath string

func (p FreshPath) SourcePath() string { return string(p) }

func (p FreshPath) Known() (state.FileRecord, bool) { return state.FileRecord{}, false }

// LoggedRecord is a file whose metadata was recorded when it was transferred.
type LoggedRecord struct {
	state.FileRecord
}

func (r LoggedRecord) SourcePath() string { return r.PhysicalPath }

func (r LoggedRecord) Known() (state.FileRecord, bool) { return r.FileRecord, true }

// FreshPaths wraps plain paths.
func FreshPaths(paths []string) []Candidate {
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, FreshPath(p))
	}
	return out
}

// LoggedRecords wraps records read from a transfer log or produced by a transfer.
func LoggedRecords(records []state.FileRecord) []Candidate {
	out := make([]Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, LoggedRecord{FileRecord: r})
	}
	return out
}
