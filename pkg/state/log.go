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

// Package state holds the durable record of completed transfers: an append-only log with
// one line per copied file, read back when registration runs as a separate invocation.
package state

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// 📄 FileRecord is the metadata of one physical file
type FileRecord struct {
	PhysicalPath string
	Size         uint64
	Checksum     string
	// GUID is assigned when the record is registered; log lines never carry one
	GUID string
}

// Line renders the record as a transfer log line, without the trailing newline.
func (r FileRecord) Line() string {
	return fmt.Sprintf("%s %d %s", r.PhysicalPath, r.Size, r.Checksum)
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// Loggable reports whether r can round-trip through a transfer log line.
func (r FileRecord) Loggable() error {
	if r.PhysicalPath == "" || hasSpace(r.PhysicalPath) {
		return errors.Errorf("path %q cannot be written to the transfer log", r.PhysicalPath)
	}
	if r.Checksum == "" || hasSpace(r.Checksum) {
		return errors.Errorf("checksum %q cannot be written to the transfer log", r.Checksum)
	}
	return nil
}

// ParseLine parses "path size checksum".
func ParseLine(line string) (FileRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return FileRecord{}, errors.Errorf("expected 3 fields, got %d", len(fields))
	}
	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return FileRecord{}, errors.Errorf("parsing size %q: %w", fields[1], err)
	}
	return FileRecord{PhysicalPath: fields[0], Size: size, Checksum: fields[2]}, nil
}

// 📝 Log appends transfer records to a file. A sibling ".lock" file guards against two
// runs writing the same log.
type Log struct {
	fs   afero.Fs
	path string
	file afero.File
}

// OpenLog opens path for appending, creating it if needed.
func OpenLog(ctx context.Context, fs afero.Fs, path string) (*Log, error) {
	lockPath := path + ".lock"
	lock, err := fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, errors.Errorf("creating lock file %s (remove it if no other run is active): %w", lockPath, err)
	}
	lock.Close()

	file, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fs.Remove(lockPath)
		return nil, errors.Errorf("opening transfer log: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opened transfer log")
	return &Log{fs: fs, path: path, file: file}, nil
}

// Path returns the log location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one line and syncs it to storage before returning.
func (l *Log) Append(ctx context.Context, rec FileRecord) error {
	if err := rec.Loggable(); err != nil {
		return err
	}
	if _, err := l.file.WriteString(rec.Line() + "\n"); err != nil {
		return errors.Errorf("appending to transfer log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return errors.Errorf("syncing transfer log: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", rec.PhysicalPath).Msg("logged transfer")
	return nil
}

// Close closes the log and releases its lock.
func (l *Log) Close() error {
	err := l.file.Close()
	if rmErr := l.fs.Remove(l.path + ".lock"); rmErr != nil && err == nil {
		err = rmErr
	}
	if err != nil {
		return errors.Errorf("closing transfer log: %w", err)
	}
	return nil
}

// ReadLog parses every record in the log at path, from the first line.
func ReadLog(ctx context.Context, fs afero.Fs, path string) ([]FileRecord, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening transfer log: %w", err)
	}
	defer file.Close()

	records := []FileRecord{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return nil, errors.Errorf("%s:%d: %w", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading transfer log: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("records", len(records)).Msg("read transfer log")
	return records, nil
}
