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
	"path"

	"github.com/walteh/gridxfer/pkg/catalogue"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/state"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

type destinationState int

const (
	destinationAbsent destinationState = iota
	destinationStale
	destinationInSync
)

// destinationSum reads the checksum of dst. found is false when dst does not exist.
func destinationSum(ctx context.Context, t remote.Transport, dst string) (sum string, found bool, err error) {
	sum, err = t.Checksum(ctx, dst, remote.Adler32)
	if err != nil {
		if remote.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, errors.Errorf("reading destination checksum: %w", err)
	}
	return sum, true, nil
}

func compareSums(srcSum, dstSum string, found bool) destinationState {
	switch {
	case !found:
		return destinationAbsent
	case srcSum == dstSum:
		return destinationInSync
	default:
		return destinationStale
	}
}

// reconcile reads the destination first. The source is only summed when the destination
// exists and srcSum is empty.
func reconcile(ctx context.Context, t remote.Transport, src, dst, srcSum string) (destinationState, error) {
	dstSum, found, err := destinationSum(ctx, t, dst)
	if err != nil {
		return destinationAbsent, err
	}
	if !found {
		return destinationAbsent, nil
	}

	if srcSum == "" {
		if srcSum, err = t.Checksum(ctx, src, remote.Adler32); err != nil {
			return destinationAbsent, errors.Errorf("reading source checksum: %w", err)
		}
	}
	return compareSums(srcSum, dstSum, true), nil
}

// inspect resolves c while the checksum of dst is read concurrently. ok is false when c
// turned out to be a directory, in which case the destination read is ignored.
func inspect(ctx context.Context, t remote.Transport, c Candidate, dst string) (rec state.FileRecord, ok bool, st destinationState, err error) {
	var (
		dstSum string
		found  bool
		dstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var resolveErr error
		rec, ok, resolveErr = resolve(gctx, t, c)
		return resolveErr
	})
	g.Go(func() error {
		dstSum, found, dstErr = destinationSum(gctx, t, dst)
		return nil
	})
	if err := g.Wait(); err != nil {
		return state.FileRecord{}, false, destinationAbsent, err
	}

	if !ok {
		return rec, false, destinationAbsent, nil
	}
	if dstErr != nil {
		return rec, true, destinationAbsent, dstErr
	}
	return rec, true, compareSums(rec.Checksum, dstSum, found), nil
}

// ⚖️ DestinationExists reports whether dst already holds the same bytes as src, judged by
// Adler-32. srcSum is reused when the caller has it.
func DestinationExists(ctx context.Context, t remote.Transport, src, dst, srcSum string) (bool, error) {
	s, err := reconcile(ctx, t, src, dst, srcSum)
	if err != nil {
		return false, err
	}
	return s == destinationInSync, nil
}

// JoinBase appends the base name of p to root.
func JoinBase(root, p string) string {
	return root + path.Base(p)
}

// 📖 LFNExists asks the catalogue about a single name. Only a definite answer is accepted.
func LFNExists(ctx context.Context, reg catalogue.Registry, lfn string) (bool, error) {
	res, err := reg.FileExists(ctx, lfn)
	if err != nil {
		return false, errors.Errorf("checking %s: %w", lfn, err)
	}

	switch res.Lookup(lfn) {
	case catalogue.PresencePresent:
		return true, nil
	case catalogue.PresenceAbsent:
		return false, nil
	default:
		return false, errors.WithDetails(
			errors.Errorf("checking %s: %w", lfn, catalogue.ErrAmbiguousPresence),
			"lfn", lfn,
		)
	}
}
