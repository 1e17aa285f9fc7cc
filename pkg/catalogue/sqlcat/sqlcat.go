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

// Package sqlcat implements catalogue.Registry on a SQL database (sqlite3 or postgres).
package sqlcat

import (
	"context"
	"database/sql"
	"path"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/walteh/gridxfer/pkg/catalogue"
	"gitlab.com/tozd/go/errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Drivers lists the supported database/sql driver names.
var Drivers = []string{DriverSQLite, DriverPostgres}

// Placeholders are $N, which both drivers accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalogue_directories (
		path TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS catalogue_files (
		lfn             TEXT PRIMARY KEY,
		pfn             TEXT NOT NULL,
		size            BIGINT NOT NULL,
		storage_element TEXT NOT NULL,
		guid            TEXT NOT NULL UNIQUE,
		checksum        TEXT NOT NULL,
		checksum_type   TEXT NOT NULL,
		created_at      TIMESTAMP NOT NULL
	)`,
}

const (
	selectDirectory = `SELECT 1 FROM catalogue_directories WHERE path = $1`
	insertDirectory = `INSERT INTO catalogue_directories (path) VALUES ($1) ON CONFLICT (path) DO NOTHING`
	selectFile      = `SELECT 1 FROM catalogue_files WHERE lfn = $1`
	insertFile      = `INSERT INTO catalogue_files
		(lfn, pfn, size, storage_element, guid, checksum, checksum_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lfn) DO NOTHING`
)

// 📚 Registry is a SQL-backed catalogue.Registry
type Registry struct {
	db *sql.DB
}

var _ catalogue.Registry = (*Registry)(nil)

// 🏭 Open connects to the database and ensures the schema exists
func Open(ctx context.Context, driver, dsn string) (*Registry, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported catalogue driver %q, options: %s", driver, strings.Join(Drivers, ", "))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Errorf("opening %s catalogue: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Errorf("connecting to %s catalogue: %w", driver, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Errorf("creating catalogue schema: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("driver", driver).Msg("opened catalogue")
	return &Registry{db: db}, nil
}

// Close implements catalogue.Registry.
func (r *Registry) Close() error {
	return r.db.Close()
}

func cleanDir(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// DirectoryExists implements catalogue.Registry.
func (r *Registry) DirectoryExists(ctx context.Context, dir string) (bool, error) {
	return r.exists(ctx, selectDirectory, cleanDir(dir))
}

// CreateDirectory implements catalogue.Registry.
func (r *Registry) CreateDirectory(ctx context.Context, dir string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Errorf("%w: beginning transaction: %v", catalogue.ErrCatalogueFailure, err)
	}
	defer tx.Rollback()

	for _, p := range parents(cleanDir(dir)) {
		if _, err := tx.ExecContext(ctx, insertDirectory, p); err != nil {
			return errors.Errorf("%w: creating directory %s: %v", catalogue.ErrCatalogueFailure, p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Errorf("%w: committing directory %s: %v", catalogue.ErrCatalogueFailure, dir, err)
	}
	return nil
}

// parents returns "/", "/a", "/a/b" for "/a/b".
func parents(dir string) []string {
	out := []string{"/"}
	if dir == "/" {
		return out
	}
	acc := ""
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		acc += "/" + part
		out = append(out, acc)
	}
	return out
}

// FileExists implements catalogue.Registry.
func (r *Registry) FileExists(ctx context.Context, lfns ...string) (catalogue.ExistsResult, error) {
	res := catalogue.NewExistsResult()
	for _, lfn := range lfns {
		ok, err := r.exists(ctx, selectFile, lfn)
		if err != nil {
			return catalogue.ExistsResult{}, err
		}
		if ok {
			res.Present[lfn] = struct{}{}
		} else {
			res.Absent[lfn] = struct{}{}
		}
	}
	return res, nil
}

// AddEntry implements catalogue.Registry. Entries whose parent directory is missing or whose
// LFN is taken are reported in AddResult.Failed; only database errors fail the call.
func (r *Registry) AddEntry(ctx context.Context, entries ...catalogue.Entry) (catalogue.AddResult, error) {
	res := catalogue.NewAddResult()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, errors.Errorf("%w: beginning transaction: %v", catalogue.ErrCatalogueFailure, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entries {
		if reason := invalid(e); reason != "" {
			res.Failed[e.LFN] = reason
			continue
		}

		var one int
		err := tx.QueryRowContext(ctx, selectDirectory, path.Dir(e.LFN)).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			res.Failed[e.LFN] = "parent directory does not exist"
			continue
		} else if err != nil {
			return catalogue.NewAddResult(), errors.Errorf("%w: checking parent of %s: %v", catalogue.ErrCatalogueFailure, e.LFN, err)
		}

		result, err := tx.ExecContext(ctx, insertFile,
			e.LFN, e.PhysicalPath, int64(e.Size), e.StorageElement, e.GUID, e.Checksum, e.ChecksumType, now)
		if err != nil {
			return catalogue.NewAddResult(), errors.Errorf("%w: inserting %s: %v", catalogue.ErrCatalogueFailure, e.LFN, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return catalogue.NewAddResult(), errors.Errorf("%w: inserting %s: %v", catalogue.ErrCatalogueFailure, e.LFN, err)
		}
		if affected == 0 {
			res.Failed[e.LFN] = "file already exists"
			continue
		}
		res.Successful[e.LFN] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return catalogue.NewAddResult(), errors.Errorf("%w: committing entries: %v", catalogue.ErrCatalogueFailure, err)
	}
	return res, nil
}

func invalid(e catalogue.Entry) string {
	switch {
	case !strings.HasPrefix(e.LFN, "/") || strings.HasSuffix(e.LFN, "/"):
		return "lfn must be an absolute file path"
	case e.PhysicalPath == "":
		return "missing physical path"
	case e.StorageElement == "":
		return "missing storage element"
	case e.GUID == "":
		return "missing guid"
	case e.Checksum == "":
		return "missing checksum"
	}
	return ""
}

func (r *Registry) exists(ctx context.Context, query, key string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, key).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.Errorf("%w: looking up %s: %v", catalogue.ErrCatalogueFailure, key, err)
	default:
		return true, nil
	}
}
