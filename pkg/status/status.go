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

package status

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus is the outcome recorded for one file
type FileStatus int

const (
	StatusUnknown FileStatus = iota
	StatusTransferred
	StatusOverwritten // stale destination replaced
	StatusInSync      // destination already matched, nothing copied
	StatusSkippedDirectory
	StatusExcluded
	StatusRegistered
	StatusAlreadyRegistered
	StatusFailed

	// dry-run states
	StatusNeedsTransfer
	StatusStale
	StatusUnregistered
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusTransferred:
		return "transferred"
	case StatusOverwritten:
		return "overwritten"
	case StatusInSync:
		return "in-sync"
	case StatusSkippedDirectory:
		return "skipped-directory"
	case StatusExcluded:
		return "excluded"
	case StatusRegistered:
		return "registered"
	case StatusAlreadyRegistered:
		return "already-registered"
	case StatusFailed:
		return "failed"
	case StatusNeedsTransfer:
		return "needs-transfer"
	case StatusStale:
		return "stale"
	case StatusUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// 📄 FileInfo describes what happened to one file
type FileInfo struct {
	Path        string // source path, or physical path for registrations
	Destination string
	LFN         string
	Status      FileStatus
	Size        uint64
	Checksum    string
	Error       error
}

// 📈 StatusReporter tracks file outcomes and reports progress
type StatusReporter interface {
	TrackFile(ctx context.Context, info FileInfo)
	StartOperation(ctx context.Context, name string, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// 🔧 Manager implements StatusReporter, echoing each outcome to a console writer
type Manager struct {
	out       io.Writer
	formatter FileFormatter

	mu    sync.Mutex
	files []FileInfo

	operation string
	total     int
	processed int
}

var _ StatusReporter = (*Manager)(nil)

// 🏭 New creates a status manager writing per-file lines to out. A nil out keeps
// outcomes without printing them.
func New(out io.Writer) *Manager {
	if out == nil {
		out = io.Discard
	}
	return &Manager{
		out:       out,
		formatter: NewDefaultFileFormatter(),
	}
}

// WithFormatter replaces the formatter used for per-file lines.
func (m *Manager) WithFormatter(f FileFormatter) *Manager {
	m.formatter = f
	return m
}

func (m *Manager) TrackFile(ctx context.Context, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files = append(m.files, info)

	ev := zerolog.Ctx(ctx).Debug()
	if info.Error != nil {
		ev = zerolog.Ctx(ctx).Error().Err(info.Error)
	}
	ev.Str("path", info.Path).Str("status", info.Status.String()).Msg("file tracked")

	io.WriteString(m.out, m.formatter.FormatFileOperation(info)+"\n")
}

// Files returns every tracked outcome in the order it was recorded.
func (m *Manager) Files() []FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]FileInfo, len(m.files))
	copy(out, m.files)
	return out
}

// Counts tallies tracked outcomes per status.
func (m *Manager) Counts() map[FileStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[FileStatus]int)
	for _, f := range m.files {
		counts[f.Status]++
	}
	return counts
}

// Err returns the first tracked failure, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		if f.Status == StatusFailed {
			if f.Error != nil {
				return errors.Errorf("%s: %w", f.Path, f.Error)
			}
			return errors.Errorf("%s failed", f.Path)
		}
	}
	return nil
}

func (m *Manager) StartOperation(ctx context.Context, name string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operation = name
	m.total = total
	m.processed = 0
	zerolog.Ctx(ctx).Info().Str("operation", name).Int("total", total).Msg(m.formatter.FormatProgress(0, total))
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	zerolog.Ctx(ctx).Debug().
		Str("operation", m.operation).
		Int("processed", processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(processed, m.total))
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("operation", m.operation).
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(m.processed, m.total))
}
