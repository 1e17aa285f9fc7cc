package s3store

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gridxfer/pkg/remote"
)

// 🔧 fakeS3 serves a fixed key set from memory
type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
}

func (f *fakeS3) notFound() error {
	return awserr.NewRequestFailure(awserr.New("NotFound", "not found", nil), http.StatusNotFound, "req")
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, f.notFound()
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(body)))}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) list(in *s3.ListObjectsV2Input) *s3.ListObjectsV2Output {
	prefix := aws.StringValue(in.Prefix)
	delim := aws.StringValue(in.Delimiter)
	out := &s3.ListObjectsV2Output{}
	seen := map[string]bool{}
	for key := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if delim != "" {
			if idx := strings.Index(rest, delim); idx >= 0 {
				cp := prefix + rest[:idx+1]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(key)})
	}
	out.KeyCount = aws.Int64(int64(len(out.Contents) + len(out.CommonPrefixes)))
	return out
}

func (f *fakeS3) ListObjectsV2WithContext(_ aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	return f.list(in), nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	fn(f.list(in), true)
	return nil
}

func newFake() *Backend {
	return NewWithClient(&fakeS3{objects: map[string]string{
		"data/a.dat":        "aaa",
		"data/b.dat":        "bb",
		"data/nested/c.dat": "c",
	}})
}

func TestSplitPath(t *testing.T) {
	bucket, key, err := SplitPath("s3://bucket/data/a.dat")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "data/a.dat", key)

	bucket, key, err = SplitPath("s3://bucket")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "", key)

	_, _, err = SplitPath("/data/a.dat")
	require.Error(t, err)

	_, _, err = SplitPath("s3:///data/a.dat")
	require.Error(t, err)
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	b := newFake()

	info, err := b.Stat(ctx, "s3://bucket/data/a.dat")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Size)
	assert.False(t, info.IsDir)

	info, err = b.Stat(ctx, "s3://bucket/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir, "shared prefix is a directory")

	_, err = b.Stat(ctx, "s3://bucket/missing.dat")
	require.Error(t, err)
	assert.True(t, remote.IsNotFound(err))
}

func TestReadDir(t *testing.T) {
	ctx := context.Background()
	b := newFake()

	names, err := b.ReadDir(ctx, "s3://bucket/data/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.dat", "b.dat", "nested"}, names)

	_, err = b.ReadDir(ctx, "s3://bucket/data/a.dat")
	require.Error(t, err)
	assert.True(t, remote.IsNotDirectory(err))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	b := newFake()

	r, err := b.Open(ctx, "s3://bucket/data/b.dat")
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(content))

	_, err = b.Open(ctx, "s3://bucket/data/none.dat")
	require.Error(t, err)
	assert.True(t, remote.IsNotFound(err))
}
