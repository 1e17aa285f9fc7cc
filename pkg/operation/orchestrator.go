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

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/gridxfer/pkg/catalogue"
	"github.com/walteh/gridxfer/pkg/catalogue/sqlcat"
	"github.com/walteh/gridxfer/pkg/config"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔀 Mode is the workflow selected by the transfer and register flags
type Mode int

const (
	ModeTransferThenRegister Mode = iota
	ModeTransferOnly
	ModeRegisterOnly
)

func (m Mode) String() string {
	switch m {
	case ModeTransferOnly:
		return "transfer-only"
	case ModeRegisterOnly:
		return "register-only"
	default:
		return "transfer-then-register"
	}
}

// ModeOf derives the workflow from cfg. Both flags or neither selects transfer-then-register.
func ModeOf(cfg *config.Config) Mode {
	switch {
	case !cfg.Registers():
		return ModeTransferOnly
	case !cfg.Transfers():
		return ModeRegisterOnly
	default:
		return ModeTransferThenRegister
	}
}

// RegistryOpener connects to the catalogue described by cfg.
type RegistryOpener func(ctx context.Context, cfg config.CatalogueConfig) (catalogue.Registry, error)

// OpenSQLRegistry opens the database/sql catalogue.
func OpenSQLRegistry(ctx context.Context, cfg config.CatalogueConfig) (catalogue.Registry, error) {
	return sqlcat.Open(ctx, cfg.Driver, cfg.DSN)
}

// 📊 Result collects the outcomes of a run
type Result struct {
	Mode     Mode
	Transfer Outcomes
	Register Outcomes
}

// 🎮 Orchestrator wires the collaborators of a run together
type Orchestrator struct {
	Transport remote.Transport
	// Fs holds the transfer logs
	Fs           afero.Fs
	OpenRegistry RegistryOpener
	Reporter     status.StatusReporter
}

// 🏭 New creates an orchestrator. A nil opener uses the SQL catalogue and a nil reporter
// discards outcomes.
func New(t remote.Transport, fs afero.Fs, open RegistryOpener, reporter status.StatusReporter) (*Orchestrator, error) {
	if t == nil {
		return nil, errors.Errorf("transport is required")
	}
	if fs == nil {
		return nil, errors.Errorf("log filesystem is required")
	}
	if open == nil {
		open = OpenSQLRegistry
	}
	return &Orchestrator{Transport: t, Fs: fs, OpenRegistry: open, Reporter: reporter}, nil
}

func (o *Orchestrator) reporter() status.StatusReporter {
	if o.Reporter == nil {
		o.Reporter = status.New(nil)
	}
	return o.Reporter
}

// operations builds the steps of the workflow selected by cfg.
func (o *Orchestrator) operations(cfg *config.Config, result *Result) []Operation {
	switch result.Mode {
	case ModeTransferOnly:
		return []Operation{
			&ensureDestinationOperation{o: o, cfg: cfg},
			&transferOperation{o: o, cfg: cfg, result: result},
		}
	case ModeRegisterOnly:
		candidates := func(ctx context.Context) ([]Candidate, error) {
			return o.sourceCandidates(ctx, cfg)
		}
		if cfg.InputLog != "" {
			candidates = func(ctx context.Context) ([]Candidate, error) {
				return o.logCandidates(ctx, cfg)
			}
		}
		return []Operation{
			&registerOperation{o: o, cfg: cfg, result: result, candidates: candidates},
		}
	default:
		return []Operation{
			&ensureDestinationOperation{o: o, cfg: cfg},
			&transferOperation{o: o, cfg: cfg, result: result},
			&registerOperation{o: o, cfg: cfg, result: result, candidates: func(ctx context.Context) ([]Candidate, error) {
				return LoggedRecords(result.Transfer.AtDestination()), nil
			}},
		}
	}
}

// 🚀 Run validates cfg and executes the selected workflow. The result holds whatever was
// done before a failure.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	result := &Result{Mode: ModeOf(cfg)}
	logger.Info().Str("mode", result.Mode.String()).Str("run", cfg.String()).Msg("starting run")

	if err := NewRunner(logger).Run(ctx, o.operations(cfg, result)...); err != nil {
		return result, err
	}
	return result, nil
}

// 🔍 Plan reports what Run would do with cfg without copying, logging or registering.
func (o *Orchestrator) Plan(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	reporter := o.reporter()

	var candidates []Candidate
	var err error
	if cfg.RegistersFromLog() {
		candidates, err = o.logCandidates(ctx, cfg)
	} else {
		candidates, err = o.sourceCandidates(ctx, cfg)
	}
	if err != nil {
		return err
	}

	// records as registration would receive them
	toRegister := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if !cfg.Transfers() {
			rec, ok, err := resolve(ctx, o.Transport, c)
			if err != nil {
				return err
			}
			if !ok {
				reporter.TrackFile(ctx, status.FileInfo{Path: c.SourcePath(), Status: status.StatusSkippedDirectory})
				continue
			}
			toRegister = append(toRegister, LoggedRecord{FileRecord: rec})
			continue
		}

		dst := JoinBase(cfg.Destination, c.SourcePath())
		rec, ok, st, err := inspect(ctx, o.Transport, c, dst)
		if err != nil {
			return err
		}
		if !ok {
			reporter.TrackFile(ctx, status.FileInfo{Path: c.SourcePath(), Status: status.StatusSkippedDirectory})
			continue
		}
		info := status.FileInfo{Path: c.SourcePath(), Destination: dst, Size: rec.Size, Checksum: rec.Checksum}
		switch st {
		case destinationAbsent:
			info.Status = status.StatusNeedsTransfer
		case destinationStale:
			info.Status = status.StatusStale
		default:
			info.Status = status.StatusInSync
		}
		reporter.TrackFile(ctx, info)

		rec.PhysicalPath = dst
		toRegister = append(toRegister, LoggedRecord{FileRecord: rec})
	}

	if !cfg.Registers() {
		return nil
	}

	reg, err := o.OpenRegistry(ctx, cfg.Catalogue)
	if err != nil {
		return errors.Errorf("opening catalogue: %w", err)
	}
	defer reg.Close()

	root := cfg.LFNRoot
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	for _, c := range toRegister {
		rec, _ := c.Known()
		lfn := JoinBase(root, rec.PhysicalPath)
		present, err := LFNExists(ctx, reg, lfn)
		if err != nil {
			return err
		}
		info := status.FileInfo{Path: rec.PhysicalPath, LFN: lfn, Size: rec.Size, Checksum: rec.Checksum, Status: status.StatusUnregistered}
		if present {
			info.Status = status.StatusAlreadyRegistered
		}
		reporter.TrackFile(ctx, info)
	}
	return nil
}
