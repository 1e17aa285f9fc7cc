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
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/gridxfer/pkg/catalogue"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📥 RegisterInput is everything one registration pass needs
type RegisterInput struct {
	Registry catalogue.Registry
	// Transport resolves FreshPath candidates; unused for LoggedRecords
	Transport      remote.Transport
	Candidates     []Candidate
	StorageElement string
	LFNRoot        string
	Reporter       status.StatusReporter
	// NewGUID overrides identifier minting
	NewGUID func() string
}

// EnsureLFNRoot creates root in the catalogue when absent and returns it with a trailing
// separator.
func EnsureLFNRoot(ctx context.Context, reg catalogue.Registry, root string) (string, error) {
	exists, err := reg.DirectoryExists(ctx, root)
	if err != nil {
		return "", errors.Errorf("checking lfn root %s: %w", root, err)
	}
	if !exists {
		zerolog.Ctx(ctx).Info().Str("lfn", root).Msg("creating lfn root")
		if err := reg.CreateDirectory(ctx, root); err != nil {
			return "", errors.Errorf("creating lfn root %s: %w", root, err)
		}
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root, nil
}

// 📚 Register adds one catalogue entry per candidate whose name the catalogue does not
// already hold, one AddEntry call per file. A failed call or a rejected entry aborts the
// pass; earlier registrations are kept.
func Register(ctx context.Context, in RegisterInput) (Outcomes, error) {
	logger := zerolog.Ctx(ctx)
	reporter := reporterOrDiscard(in.Reporter)

	if in.Registry == nil {
		return nil, errors.Errorf("registry is required")
	}
	newGUID := in.NewGUID
	if newGUID == nil {
		newGUID = uuid.NewString
	}

	root, err := EnsureLFNRoot(ctx, in.Registry, in.LFNRoot)
	if err != nil {
		return nil, err
	}

	reporter.StartOperation(ctx, "register", len(in.Candidates))
	defer reporter.FinishOperation(ctx)

	outcomes := Outcomes{}
	for i, c := range in.Candidates {
		oc, err := registerOne(ctx, in, root, newGUID, c)
		if err != nil {
			reporter.TrackFile(ctx, status.FileInfo{Path: c.SourcePath(), LFN: oc.LFN, Status: status.StatusFailed, Error: err})
			return outcomes, errors.Errorf("registering %s: %w", c.SourcePath(), err)
		}

		reporter.TrackFile(ctx, status.FileInfo{
			Path:     oc.Source,
			LFN:      oc.LFN,
			Status:   oc.Status,
			Size:     oc.Record.Size,
			Checksum: oc.Record.Checksum,
		})
		if oc.Status != status.StatusSkippedDirectory {
			outcomes = append(outcomes, oc)
		}
		reporter.UpdateProgress(ctx, i+1)
	}

	registered := 0
	for _, oc := range outcomes {
		if oc.Status == status.StatusRegistered {
			registered++
		}
	}
	logger.Info().Int("candidates", len(in.Candidates)).Int("registered", registered).Msg("registration complete")
	return outcomes, nil
}

func registerOne(ctx context.Context, in RegisterInput, root string, newGUID func() string, c Candidate) (Outcome, error) {
	logger := zerolog.Ctx(ctx)
	src := c.SourcePath()
	lfn := JoinBase(root, src)

	if _, isKnown := c.Known(); !isKnown && in.Transport == nil {
		return Outcome{LFN: lfn}, errors.Errorf("transport is required to resolve %s", src)
	}
	rec, ok, err := resolve(ctx, in.Transport, c)
	if err != nil {
		return Outcome{LFN: lfn}, err
	}
	if !ok {
		logger.Debug().Str("source", src).Msg("skip directory")
		return Outcome{Source: src, Status: status.StatusSkippedDirectory}, nil
	}

	present, err := LFNExists(ctx, in.Registry, lfn)
	if err != nil {
		return Outcome{LFN: lfn}, err
	}
	if present {
		logger.Info().Str("lfn", lfn).Msg("skip")
		return Outcome{Source: src, Record: rec, LFN: lfn, Status: status.StatusAlreadyRegistered}, nil
	}

	rec.GUID = newGUID()

	entry := catalogue.Entry{
		LFN:            lfn,
		PhysicalPath:   rec.PhysicalPath,
		Size:           rec.Size,
		StorageElement: in.StorageElement,
		GUID:           rec.GUID,
		Checksum:       rec.Checksum,
		ChecksumType:   catalogue.ChecksumTypeAdler32,
	}

	logger.Info().
		Str("lfn", lfn).
		Str("source", rec.PhysicalPath).
		Uint64("size", rec.Size).
		Str("checksum", rec.Checksum).
		Str("guid", rec.GUID).
		Msg("register")

	res, err := in.Registry.AddEntry(ctx, entry)
	if err != nil {
		return Outcome{LFN: lfn}, errors.Errorf("adding entry: %w", err)
	}
	if len(res.Failed) > 0 {
		return Outcome{LFN: lfn}, errors.WithDetails(
			errors.Errorf("%s: %w", res.FailureSummary(), catalogue.ErrEntryRejected),
			"lfn", lfn,
		)
	}
	if _, ok := res.Successful[lfn]; !ok {
		return Outcome{LFN: lfn}, errors.WithDetails(
			errors.Errorf("%s not confirmed: %w", lfn, catalogue.ErrEntryRejected),
			"lfn", lfn,
		)
	}

	return Outcome{Source: src, Record: rec, LFN: lfn, Status: status.StatusRegistered}, nil
}
