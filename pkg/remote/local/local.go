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

// Package local is a remote.Backend over an afero filesystem, serving plain paths and
// file:// URLs.
package local

import (
	"context"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/walteh/gridxfer/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

const tmpSuffix = ".gridxfer.tmp"

// 💾 Backend implements remote.Backend on top of an afero.Fs
type Backend struct {
	fs afero.Fs
}

var _ remote.Backend = (*Backend)(nil)

// 🏭 New creates a backend over fs
func New(fs afero.Fs) *Backend {
	return &Backend{fs: fs}
}

// NewOS creates a backend over the local filesystem
func NewOS() *Backend {
	return New(afero.NewOsFs())
}

func (b *Backend) toPath(path string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(path), "file://") {
		return path, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", errors.Errorf("parsing %s: %w", path, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", errors.Errorf("file URL %s names a remote host", path)
	}
	return u.Path, nil
}

// mapErr folds os-level errors into the remote sentinels
func mapErr(op, path string, err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return errors.Errorf("%s %s: %w", op, path, remote.ErrNotFound)
	case errors.Is(err, iofs.ErrExist):
		return errors.Errorf("%s %s: %w", op, path, remote.ErrExists)
	default:
		return errors.Errorf("%s %s: %w", op, path, err)
	}
}

func (b *Backend) Stat(ctx context.Context, path string) (remote.FileInfo, error) {
	p, err := b.toPath(path)
	if err != nil {
		return remote.FileInfo{}, err
	}
	fi, err := b.fs.Stat(p)
	if err != nil {
		return remote.FileInfo{}, mapErr("stat", path, err)
	}
	return remote.FileInfo{Path: path, Size: uint64(fi.Size()), IsDir: fi.IsDir()}, nil
}

func (b *Backend) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	p, err := b.toPath(path)
	if err != nil {
		return nil, err
	}
	f, err := b.fs.Open(p)
	if err != nil {
		return nil, mapErr("open", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mapErr("stat", path, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, errors.Errorf("open %s: is a directory", path)
	}
	return f, nil
}

// Create writes into a temporary sibling which is renamed over path on Commit.
func (b *Backend) Create(ctx context.Context, path string, overwrite bool) (remote.Writer, error) {
	p, err := b.toPath(path)
	if err != nil {
		return nil, err
	}
	if !overwrite {
		if _, err := b.fs.Stat(p); err == nil {
			return nil, errors.Errorf("create %s: %w", path, remote.ErrExists)
		} else if !errors.Is(err, iofs.ErrNotExist) {
			return nil, mapErr("stat", path, err)
		}
	}
	tmp := p + tmpSuffix
	f, err := b.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, mapErr("create", path, err)
	}
	return &atomicWriter{File: f, fs: b.fs, tmp: tmp, target: p}, nil
}

func (b *Backend) ReadDir(ctx context.Context, path string) ([]string, error) {
	p, err := b.toPath(path)
	if err != nil {
		return nil, err
	}
	fi, err := b.fs.Stat(p)
	if err != nil {
		return nil, mapErr("stat", path, err)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("listing %s: %w", path, remote.ErrNotDirectory)
	}
	infos, err := afero.ReadDir(b.fs, p)
	if err != nil {
		return nil, mapErr("listing", path, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(info.Name(), tmpSuffix) {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

func (b *Backend) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	p, err := b.toPath(path)
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(p, perm); err != nil {
		return mapErr("mkdir", path, err)
	}
	return nil
}

// 📝 atomicWriter mirrors write-to-temp-then-rename semantics
type atomicWriter struct {
	afero.File
	fs     afero.Fs
	tmp    string
	target string
}

func (w *atomicWriter) Commit() error {
	if err := w.File.Sync(); err != nil {
		w.Abort()
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := w.File.Close(); err != nil {
		w.fs.Remove(w.tmp)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := w.fs.Rename(w.tmp, w.target); err != nil {
		w.fs.Remove(w.tmp)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (w *atomicWriter) Abort() error {
	w.File.Close()
	if err := w.fs.Remove(w.tmp); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return errors.Errorf("removing temp file: %w", err)
	}
	return nil
}
