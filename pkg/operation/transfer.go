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
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/state"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📝 TransferLog receives one record per copied file
type TransferLog interface {
	Append(ctx context.Context, rec state.FileRecord) error
}

// 📤 TransferInput is everything one transfer pass needs
type TransferInput struct {
	Transport  remote.Transport
	Candidates []Candidate
	// DestinationRoot must end with a separator
	DestinationRoot string
	Log             TransferLog
	Reporter        status.StatusReporter
}

// 📄 Outcome is what happened to one candidate. Record.PhysicalPath is the destination for
// transfers and the registered path for registrations.
type Outcome struct {
	Source string
	Record state.FileRecord
	LFN    string
	Status status.FileStatus
}

// Outcomes is the ordered result of an engine pass.
type Outcomes []Outcome

// Transferred returns the records of files copied by this pass.
func (o Outcomes) Transferred() []state.FileRecord {
	out := []state.FileRecord{}
	for _, oc := range o {
		if oc.Status == status.StatusTransferred || oc.Status == status.StatusOverwritten {
			out = append(out, oc.Record)
		}
	}
	return out
}

// AtDestination returns the records of every file that is now correct at the destination,
// copied or already in sync.
func (o Outcomes) AtDestination() []state.FileRecord {
	out := []state.FileRecord{}
	for _, oc := range o {
		switch oc.Status {
		case status.StatusTransferred, status.StatusOverwritten, status.StatusInSync:
			out = append(out, oc.Record)
		}
	}
	return out
}

func reporterOrDiscard(r status.StatusReporter) status.StatusReporter {
	if r == nil {
		return status.New(nil)
	}
	return r
}

// resolve returns the size and checksum of c, reading them from the transport when c is
// a FreshPath. ok is false when c turned out to be a directory.
func resolve(ctx context.Context, t remote.Transport, c Candidate) (rec state.FileRecord, ok bool, err error) {
	if known, isKnown := c.Known(); isKnown {
		return known, true, nil
	}

	src := c.SourcePath()
	info, err := t.Stat(ctx, src)
	if err != nil {
		return rec, false, errors.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir {
		return rec, false, nil
	}

	sum, err := t.Checksum(ctx, src, remote.Adler32)
	if err != nil {
		return rec, false, errors.Errorf("checksum %s: %w", src, err)
	}

	return state.FileRecord{PhysicalPath: src, Size: info.Size, Checksum: sum}, true, nil
}

// 🚚 Transfer copies every candidate that is not already correct at the destination and
// logs each copy before moving on. The first failure aborts the pass; outcomes gathered
// so far are returned with the error.
func Transfer(ctx context.Context, in TransferInput) (Outcomes, error) {
	logger := zerolog.Ctx(ctx)
	reporter := reporterOrDiscard(in.Reporter)

	if in.Transport == nil {
		return nil, errors.Errorf("transport is required")
	}
	if in.Log == nil {
		return nil, errors.Errorf("transfer log is required")
	}

	reporter.StartOperation(ctx, "transfer", len(in.Candidates))
	defer reporter.FinishOperation(ctx)

	outcomes := Outcomes{}
	for i, c := range in.Candidates {
		oc, err := transferOne(ctx, in, c)
		if err != nil {
			reporter.TrackFile(ctx, status.FileInfo{Path: c.SourcePath(), Status: status.StatusFailed, Error: err})
			return outcomes, errors.Errorf("transferring %s: %w", c.SourcePath(), err)
		}

		reporter.TrackFile(ctx, status.FileInfo{
			Path:        oc.Source,
			Destination: oc.Record.PhysicalPath,
			Status:      oc.Status,
			Size:        oc.Record.Size,
			Checksum:    oc.Record.Checksum,
		})
		if oc.Status != status.StatusSkippedDirectory {
			outcomes = append(outcomes, oc)
		}
		reporter.UpdateProgress(ctx, i+1)
	}

	logger.Info().Int("candidates", len(in.Candidates)).Int("copied", len(outcomes.Transferred())).Msg("transfer complete")
	return outcomes, nil
}

func transferOne(ctx context.Context, in TransferInput, c Candidate) (Outcome, error) {
	logger := zerolog.Ctx(ctx)
	src := c.SourcePath()

	dst := JoinBase(in.DestinationRoot, src)

	rec, ok, st, err := inspect(ctx, in.Transport, c, dst)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		logger.Debug().Str("source", src).Msg("skip directory")
		return Outcome{Source: src, Status: status.StatusSkippedDirectory}, nil
	}
	rec.PhysicalPath = dst

	if st == destinationInSync {
		logger.Info().Str("source", src).Str("destination", dst).Str("checksum", rec.Checksum).Msg("skip")
		return Outcome{Source: src, Record: rec, Status: status.StatusInSync}, nil
	}

	// a copy that cannot be logged would be skipped as in sync by every later run
	if err := rec.Loggable(); err != nil {
		return Outcome{}, err
	}

	logger.Info().
		Str("source", src).
		Str("destination", dst).
		Uint64("size", rec.Size).
		Str("checksum", rec.Checksum).
		Bool("overwrite", st == destinationStale).
		Msg("copy")

	if err := in.Transport.Copy(ctx, src, dst, remote.CopyOptions{Overwrite: true, VerifyChecksum: true}); err != nil {
		return Outcome{}, err
	}

	if err := in.Log.Append(ctx, rec); err != nil {
		return Outcome{}, errors.Errorf("logging transfer: %w", err)
	}

	s := status.StatusTransferred
	if st == destinationStale {
		s = status.StatusOverwritten
	}
	return Outcome{Source: src, Record: rec, Status: s}, nil
}
