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

package remote

import (
	"context"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// SchemeOf returns the lower-cased URL scheme of path, or "" for plain paths.
func SchemeOf(path string) string {
	idx := strings.Index(path, "://")
	if idx <= 0 {
		return ""
	}
	u, err := url.Parse(path)
	if err != nil {
		return strings.ToLower(path[:idx])
	}
	return strings.ToLower(u.Scheme)
}

// 🔀 Mux is a Transport that routes every path to the Backend registered for its scheme
type Mux struct {
	backends map[string]Backend
}

var _ Transport = (*Mux)(nil)

// 🏭 NewMux creates an empty Mux
func NewMux() *Mux {
	return &Mux{backends: map[string]Backend{}}
}

// Register binds a backend to one or more URL schemes. The empty scheme covers plain paths.
func (m *Mux) Register(backend Backend, schemes ...string) {
	for _, s := range schemes {
		m.backends[strings.ToLower(s)] = backend
	}
}

func (m *Mux) backendFor(path string) (Backend, error) {
	scheme := SchemeOf(path)
	backend, ok := m.backends[scheme]
	if !ok {
		options := []string{}
		for k := range m.backends {
			if k == "" {
				k = "<plain path>"
			}
			options = append(options, k)
		}
		sort.Strings(options)
		return nil, errors.Errorf("no backend for scheme %q of %s, options: %s", scheme, path, strings.Join(options, ", "))
	}
	return backend, nil
}

// Stat implements Transport.
func (m *Mux) Stat(ctx context.Context, path string) (FileInfo, error) {
	backend, err := m.backendFor(path)
	if err != nil {
		return FileInfo{}, err
	}
	return backend.Stat(ctx, path)
}

// Checksum implements Transport by streaming the file through the requested hash.
func (m *Mux) Checksum(ctx context.Context, path string, alg Algorithm) (string, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}
	backend, err := m.backendFor(path)
	if err != nil {
		return "", err
	}
	reader, err := backend.Open(ctx, path)
	if err != nil {
		return "", errors.Errorf("opening %s: %w", path, err)
	}
	defer reader.Close()

	if _, err := io.Copy(h, reader); err != nil {
		return "", errors.Errorf("reading %s: %w", path, err)
	}
	return FormatSum(h.Sum32()), nil
}

// ListDirectory implements Transport.
func (m *Mux) ListDirectory(ctx context.Context, path string) ([]string, error) {
	backend, err := m.backendFor(path)
	if err != nil {
		return nil, err
	}
	return backend.ReadDir(ctx, path)
}

// MkdirAll implements Transport.
func (m *Mux) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	backend, err := m.backendFor(path)
	if err != nil {
		return err
	}
	return backend.MkdirAll(ctx, path, perm)
}

// 📦 Copy implements Transport. Content is streamed from the source backend into the
// destination backend; the source sum is taken on the fly so verification costs one extra
// read of the destination only.
func (m *Mux) Copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	logger := zerolog.Ctx(ctx)

	srcBackend, err := m.backendFor(src)
	if err != nil {
		return err
	}
	dstBackend, err := m.backendFor(dst)
	if err != nil {
		return err
	}

	reader, err := srcBackend.Open(ctx, src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer reader.Close()

	writer, err := dstBackend.Create(ctx, dst, opts.Overwrite)
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	h, _ := newHash(Adler32)
	n, err := io.Copy(writer, io.TeeReader(reader, h))
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil {
			logger.Warn().Err(abortErr).Str("destination", dst).Msg("failed to discard partial copy")
		}
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := writer.Commit(); err != nil {
		return errors.Errorf("committing %s: %w", dst, err)
	}
	logger.Debug().Str("source", src).Str("destination", dst).Int64("bytes", n).Msg("copied")

	if !opts.VerifyChecksum {
		return nil
	}

	srcSum := FormatSum(h.Sum32())
	dstSum, err := m.Checksum(ctx, dst, Adler32)
	if err != nil {
		return errors.Errorf("verifying %s: %w", dst, err)
	}
	if srcSum != dstSum {
		return errors.WithDetails(
			errors.Errorf("%s: %w", dst, ErrChecksumMismatch),
			"source_checksum", srcSum,
			"destination_checksum", dstSum,
		)
	}
	return nil
}
