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

// Package s3store is a remote.Backend for s3:// URLs.
package s3store

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
	"github.com/walteh/gridxfer/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

var errAborted = errors.Base("upload aborted")

// Config configures the S3 client. Empty fields fall back to the SDK defaults.
type Config struct {
	// Region is the bucket region. If empty, it is taken from Profile or the environment.
	Region string `json:"region,omitempty" yaml:"region,omitempty" hcl:"region,optional"`
	// Endpoint of an S3-compatible service. Setting it forces path-style addressing.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" hcl:"endpoint,optional"`
	// Profile selects credentials from the shared credentials file.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty" hcl:"profile,optional"`
}

// ☁️ Backend implements remote.Backend against S3
type Backend struct {
	cfg Config

	mu     sync.Mutex
	client s3iface.S3API
}

var _ remote.Backend = (*Backend)(nil)

// 🏭 New creates a backend whose client is built on first use
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// NewWithClient creates a backend over an existing client
func NewWithClient(client s3iface.S3API) *Backend {
	return &Backend{client: client}
}

func (b *Backend) s3Client(ctx context.Context) (s3iface.S3API, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return b.client, nil
	}

	awsConfig := aws.NewConfig()
	awsConfig.WithCredentialsChainVerboseErrors(true)
	if b.cfg.Region != "" {
		awsConfig.WithRegion(b.cfg.Region)
	}
	if b.cfg.Endpoint != "" {
		awsConfig.WithEndpoint(b.cfg.Endpoint)
		// bucket-named virtual hosts do not work with explicit endpoints
		awsConfig.WithS3ForcePathStyle(true)
	} else {
		awsConfig.WithHTTPClient(&http.Client{
			Transport: &http.Transport{DisableCompression: true},
		})
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Profile: b.cfg.Profile,
		Config:  *awsConfig,
	})
	if err != nil {
		return nil, errors.Errorf("constructing S3 session: %w", err)
	}
	if sess.Config.Region == nil || *sess.Config.Region == "" {
		return nil, errors.Errorf("missing AWS region configuration for profile %q", b.cfg.Profile)
	}

	zerolog.Ctx(ctx).Debug().
		Str("endpoint", b.cfg.Endpoint).
		Str("profile", b.cfg.Profile).
		Str("region", *sess.Config.Region).
		Msg("constructed S3 session")

	b.client = s3.New(sess)
	return b.client, nil
}

// SplitPath splits s3://bucket/key into its bucket and key.
func SplitPath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", errors.Errorf("parsing %s: %w", path, err)
	}
	if u.Scheme != "s3" {
		return "", "", errors.Errorf("%s is not an s3:// URL", path)
	}
	if u.Host == "" {
		return "", "", errors.Errorf("%s has no bucket", path)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}

func dirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

func (b *Backend) Stat(ctx context.Context, path string) (remote.FileInfo, error) {
	bucket, key, err := SplitPath(path)
	if err != nil {
		return remote.FileInfo{}, err
	}
	client, err := b.s3Client(ctx)
	if err != nil {
		return remote.FileInfo{}, err
	}

	if key != "" && !strings.HasSuffix(key, "/") {
		head, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return remote.FileInfo{Path: path, Size: uint64(aws.Int64Value(head.ContentLength))}, nil
		} else if !isNotFound(err) {
			return remote.FileInfo{}, errors.Errorf("stat %s: %w", path, err)
		}
	}

	// object stores have no directories, only shared key prefixes
	if key == "" {
		return remote.FileInfo{Path: path, IsDir: true}, nil
	}
	list, err := client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return remote.FileInfo{}, errors.Errorf("stat %s: %w", path, err)
	}
	if aws.Int64Value(list.KeyCount) == 0 {
		return remote.FileInfo{}, errors.Errorf("stat %s: %w", path, remote.ErrNotFound)
	}
	return remote.FileInfo{Path: path, IsDir: true}, nil
}

func (b *Backend) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	client, err := b.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, errors.Errorf("open %s: %w", path, remote.ErrNotFound)
	} else if err != nil {
		return nil, errors.Errorf("open %s: %w", path, err)
	}
	return resp.Body, nil
}

// Create streams the written content into a multipart upload which completes on Commit.
func (b *Backend) Create(ctx context.Context, path string, overwrite bool) (remote.Writer, error) {
	bucket, key, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	client, err := b.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	if !overwrite {
		_, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return nil, errors.Errorf("create %s: %w", path, remote.ErrExists)
		} else if !isNotFound(err) {
			return nil, errors.Errorf("create %s: %w", path, err)
		}
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	uploader := s3manager.NewUploaderWithClient(client)
	go func() {
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		pr.CloseWithError(err)
		done <- err
	}()
	return &uploadWriter{pw: pw, done: done}, nil
}

func (b *Backend) ReadDir(ctx context.Context, path string) ([]string, error) {
	info, err := b.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return nil, errors.Errorf("listing %s: %w", path, remote.ErrNotDirectory)
	}

	bucket, key, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	client, err := b.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	prefix := dirPrefix(key)
	names := []string{}
	err = client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
			if name != "" {
				names = append(names, name)
			}
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(cp.Prefix), prefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", path, err)
	}
	sort.Strings(names)
	return names, nil
}

// MkdirAll is a no-op: prefixes come into being with their first object.
func (b *Backend) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	if _, _, err := SplitPath(path); err != nil {
		return err
	}
	return nil
}

type uploadWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *uploadWriter) Commit() error {
	w.pw.Close()
	if err := <-w.done; err != nil {
		return errors.Errorf("uploading: %w", err)
	}
	return nil
}

func (w *uploadWriter) Abort() error {
	w.pw.CloseWithError(errAborted)
	<-w.done
	return nil
}
