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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/gridxfer/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// 📂 IsDirectory probes path with a listing. A plain file answers false; any other
// listing failure is returned.
func IsDirectory(ctx context.Context, t remote.Transport, p string) (bool, error) {
	_, err := t.ListDirectory(ctx, p)
	if err == nil {
		return true, nil
	}
	if remote.IsNotDirectory(err) {
		return false, nil
	}
	return false, errors.Errorf("probing %s: %w", p, err)
}

// ListFiles returns dir + name for every entry of dir, in listing order. Only immediate
// children are returned.
func ListFiles(ctx context.Context, t remote.Transport, dir string) ([]string, error) {
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	names, err := t.ListDirectory(ctx, dir)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}

	files := make([]string, 0, len(names))
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		files = append(files, dir+name)
	}
	return files, nil
}

// Enumerate expands source into the files to process: the source itself when it is a
// file, its immediate children when it is a directory.
func Enumerate(ctx context.Context, t remote.Transport, source string) ([]string, error) {
	isDir, err := IsDirectory(ctx, t, source)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return []string{source}, nil
	}
	return ListFiles(ctx, t, source)
}

// 🔍 FilterExcluded splits paths by whether their base name matches any pattern.
func FilterExcluded(paths []string, patterns []string) (kept, excluded []string) {
	kept = make([]string, 0, len(paths))
	for _, p := range paths {
		if matchesAny(patterns, path.Base(p)) {
			excluded = append(excluded, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, excluded
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Candidates enumerates source and drops excluded entries. The excluded paths are
// returned for reporting.
func Candidates(ctx context.Context, t remote.Transport, source string, exclude []string) ([]Candidate, []string, error) {
	paths, err := Enumerate(ctx, t, source)
	if err != nil {
		return nil, nil, err
	}

	kept, excluded := FilterExcluded(paths, exclude)
	for _, p := range excluded {
		zerolog.Ctx(ctx).Debug().Str("source", p).Msg("excluded")
	}

	return FreshPaths(kept), excluded, nil
}
