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
	"github.com/walteh/gridxfer/pkg/config"
	"github.com/walteh/gridxfer/pkg/state"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one step of a workflow
type Operation interface {
	Name() string
	Execute(ctx context.Context) error
}

// 📁 ensureDestinationOperation creates the destination root
type ensureDestinationOperation struct {
	o   *Orchestrator
	cfg *config.Config
}

func (op *ensureDestinationOperation) Name() string { return "ensure destination" }

func (op *ensureDestinationOperation) Execute(ctx context.Context) error {
	if err := op.o.Transport.MkdirAll(ctx, op.cfg.Destination, 0755); err != nil {
		return errors.Errorf("creating %s: %w", op.cfg.Destination, err)
	}
	return nil
}

// 🚚 transferOperation enumerates the source and runs the transfer engine
type transferOperation struct {
	o      *Orchestrator
	cfg    *config.Config
	result *Result
}

func (op *transferOperation) Name() string { return "transfer" }

func (op *transferOperation) Execute(ctx context.Context) error {
	candidates, err := op.o.sourceCandidates(ctx, op.cfg)
	if err != nil {
		return err
	}

	log, err := state.OpenLog(ctx, op.o.Fs, op.cfg.OutputLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := log.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", log.Path()).Msg("closing transfer log")
		}
	}()

	op.result.Transfer, err = Transfer(ctx, TransferInput{
		Transport:       op.o.Transport,
		Candidates:      candidates,
		DestinationRoot: op.cfg.Destination,
		Log:             log,
		Reporter:        op.o.reporter(),
	})
	return err
}

// 📚 registerOperation opens the catalogue and runs the registration engine
type registerOperation struct {
	o          *Orchestrator
	cfg        *config.Config
	result     *Result
	candidates func(ctx context.Context) ([]Candidate, error)
}

func (op *registerOperation) Name() string { return "register" }

func (op *registerOperation) Execute(ctx context.Context) error {
	candidates, err := op.candidates(ctx)
	if err != nil {
		return err
	}

	reg, err := op.o.OpenRegistry(ctx, op.cfg.Catalogue)
	if err != nil {
		return errors.Errorf("opening catalogue: %w", err)
	}
	defer reg.Close()

	op.result.Register, err = Register(ctx, RegisterInput{
		Registry:       reg,
		Transport:      op.o.Transport,
		Candidates:     candidates,
		StorageElement: op.cfg.StorageElement,
		LFNRoot:        op.cfg.LFNRoot,
		Reporter:       op.o.reporter(),
	})
	return err
}

// sourceCandidates enumerates cfg.Source and reports excluded entries.
func (o *Orchestrator) sourceCandidates(ctx context.Context, cfg *config.Config) ([]Candidate, error) {
	candidates, excluded, err := Candidates(ctx, o.Transport, cfg.Source, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	for _, p := range excluded {
		o.reporter().TrackFile(ctx, status.FileInfo{Path: p, Status: status.StatusExcluded})
	}
	return candidates, nil
}

// logCandidates reads every record of the transfer log at cfg.InputLog.
func (o *Orchestrator) logCandidates(ctx context.Context, cfg *config.Config) ([]Candidate, error) {
	records, err := state.ReadLog(ctx, o.Fs, cfg.InputLog)
	if err != nil {
		return nil, err
	}
	return LoggedRecords(records), nil
}
