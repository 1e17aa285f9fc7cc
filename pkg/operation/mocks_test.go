package operation

import (
	"context"
	"hash/adler32"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gridxfer/pkg/catalogue"
	"github.com/walteh/gridxfer/pkg/catalogue/sqlcat"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/remote/local"
	"github.com/walteh/gridxfer/pkg/state"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// setupMux returns a transport over an in-memory filesystem.
func setupMux(t *testing.T) (context.Context, *remote.Mux, afero.Fs) {
	fs := afero.NewMemMapFs()
	mux := remote.NewMux()
	mux.Register(local.New(fs), "", "file")
	return setupTestLogger(t), mux, fs
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0644))
	}
}

func sumOf(content string) string {
	return remote.FormatSum(adler32.Checksum([]byte(content)))
}

func openTestRegistry(t *testing.T, ctx context.Context) *sqlcat.Registry {
	reg, err := sqlcat.Open(ctx, sqlcat.DriverSQLite, filepath.Join(t.TempDir(), "catalogue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

// 🔢 countingRegistry counts AddEntry calls on the wrapped registry
type countingRegistry struct {
	catalogue.Registry
	adds int
}

func (r *countingRegistry) AddEntry(ctx context.Context, entries ...catalogue.Entry) (catalogue.AddResult, error) {
	r.adds++
	return r.Registry.AddEntry(ctx, entries...)
}

// 🔧 MockRegistry is a mock implementation of catalogue.Registry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) DirectoryExists(ctx context.Context, path string) (bool, error) {
	result := m.Called(ctx, path)
	return result.Bool(0), result.Error(1)
}

func (m *MockRegistry) CreateDirectory(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockRegistry) FileExists(ctx context.Context, lfns ...string) (catalogue.ExistsResult, error) {
	result := m.Called(ctx, lfns)
	return result.Get(0).(catalogue.ExistsResult), result.Error(1)
}

func (m *MockRegistry) AddEntry(ctx context.Context, entries ...catalogue.Entry) (catalogue.AddResult, error) {
	result := m.Called(ctx, entries)
	return result.Get(0).(catalogue.AddResult), result.Error(1)
}

func (m *MockRegistry) Close() error {
	return m.Called().Error(0)
}

// 🔧 MockTransport is a mock implementation of remote.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Stat(ctx context.Context, path string) (remote.FileInfo, error) {
	result := m.Called(ctx, path)
	return result.Get(0).(remote.FileInfo), result.Error(1)
}

func (m *MockTransport) Checksum(ctx context.Context, path string, alg remote.Algorithm) (string, error) {
	result := m.Called(ctx, path, alg)
	return result.String(0), result.Error(1)
}

func (m *MockTransport) ListDirectory(ctx context.Context, path string) ([]string, error) {
	result := m.Called(ctx, path)
	names, _ := result.Get(0).([]string)
	return names, result.Error(1)
}

func (m *MockTransport) Copy(ctx context.Context, src, dst string, opts remote.CopyOptions) error {
	return m.Called(ctx, src, dst, opts).Error(0)
}

func (m *MockTransport) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	return m.Called(ctx, path, perm).Error(0)
}

// 📝 memoryLog keeps appended records in memory
type memoryLog struct {
	records []state.FileRecord
	err     error
}

func (l *memoryLog) Append(ctx context.Context, rec state.FileRecord) error {
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}
