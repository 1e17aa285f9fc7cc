// Package remote is the blob transport boundary: every stat, listing, checksum and copy
// against a storage endpoint goes through a Transport.
package remote

import (
	"context"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when a path does not exist on its endpoint.
	ErrNotFound = errors.Base("no such file or directory")
	// ErrNotDirectory is returned when a listing is requested on a plain file.
	ErrNotDirectory = errors.Base("is not a directory")
	// ErrExists is returned by a non-overwriting copy onto an existing destination.
	ErrExists = errors.Base("file exists")
	// ErrChecksumMismatch is returned when a verified copy does not match its source.
	ErrChecksumMismatch = errors.Base("checksum mismatch after copy")
)

// IsNotFound reports whether err signals an absent path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotDirectory reports whether err signals a listing attempt on a plain file.
func IsNotDirectory(err error) bool {
	return errors.Is(err, ErrNotDirectory)
}

// 📄 FileInfo is the subset of stat output the engines rely on
type FileInfo struct {
	Path  string
	Size  uint64
	IsDir bool
}

// 🔧 CopyOptions controls a single file copy
type CopyOptions struct {
	// Overwrite replaces an existing destination instead of failing with ErrExists
	Overwrite bool
	// VerifyChecksum re-reads the destination after the copy and compares it with the source
	VerifyChecksum bool
}

// Transport is the primary interface for moving files between storage endpoints.
type Transport interface {
	// Stat returns size and kind of the file at path
	Stat(ctx context.Context, path string) (FileInfo, error)
	// Checksum computes the checksum of the file at path with the given algorithm
	Checksum(ctx context.Context, path string, alg Algorithm) (string, error)
	// ListDirectory returns the entry names of the directory at path, in listing order
	ListDirectory(ctx context.Context, path string) ([]string, error)
	// Copy copies src to dst
	Copy(ctx context.Context, src, dst string, opts CopyOptions) error
	// MkdirAll creates path and any missing parents
	MkdirAll(ctx context.Context, path string, perm os.FileMode) error
}

// Backend implements storage primitives for a single URL scheme.
// Paths are handed over verbatim, scheme included.
type Backend interface {
	Stat(ctx context.Context, path string) (FileInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Create returns a Writer whose content becomes visible at path only after Commit.
	// Without overwrite, an existing path yields ErrExists.
	Create(ctx context.Context, path string, overwrite bool) (Writer, error)
	ReadDir(ctx context.Context, path string) ([]string, error)
	MkdirAll(ctx context.Context, path string, perm os.FileMode) error
}

// Writer receives the content of a file being created by a Backend.
type Writer interface {
	io.Writer
	// Commit makes the written content visible at the target path
	Commit() error
	// Abort discards everything written so far
	Abort() error
}
