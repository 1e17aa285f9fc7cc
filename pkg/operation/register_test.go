package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gridxfer/pkg/catalogue"
	"github.com/walteh/gridxfer/pkg/state"
	"github.com/walteh/gridxfer/pkg/status"
)

func TestRegisterFromLogLine(t *testing.T) {
	ctx := setupTestLogger(t)
	reg := openTestRegistry(t, ctx)

	rec, err := state.ParseLine("/dest/x.dat 1024 3a9f0231")
	require.NoError(t, err)

	outcomes, err := Register(ctx, RegisterInput{
		Registry:       reg,
		Candidates:     LoggedRecords([]state.FileRecord{rec}),
		StorageElement: "SE-PRIMARY",
		LFNRoot:        "/lfn/run1",
		NewGUID:        func() string { return "guid-1" },
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "/lfn/run1/x.dat", outcomes[0].LFN)
	assert.Equal(t, status.StatusRegistered, outcomes[0].Status)
	assert.Equal(t, state.FileRecord{PhysicalPath: "/dest/x.dat", Size: 1024, Checksum: "3a9f0231", GUID: "guid-1"}, outcomes[0].Record)

	exists, err := reg.DirectoryExists(ctx, "/lfn/run1")
	require.NoError(t, err)
	assert.True(t, exists, "lfn root is created")

	res, err := reg.FileExists(ctx, "/lfn/run1/x.dat")
	require.NoError(t, err)
	assert.Equal(t, catalogue.PresencePresent, res.Lookup("/lfn/run1/x.dat"))
}

func TestRegisterIsIdempotent(t *testing.T) {
	ctx, mux, fs := setupMux(t)
	writeFiles(t, fs, map[string]string{
		"/grid/a.dat": "alpha",
		"/grid/b.dat": "bravo",
	})
	reg := &countingRegistry{Registry: openTestRegistry(t, ctx)}

	run := func() Outcomes {
		candidates, _, err := Candidates(ctx, mux, "/grid", nil)
		require.NoError(t, err)
		outcomes, err := Register(ctx, RegisterInput{
			Registry:       reg,
			Transport:      mux,
			Candidates:     candidates,
			StorageElement: "SE-PRIMARY",
			LFNRoot:        "/lfn/run1/",
		})
		require.NoError(t, err)
		return outcomes
	}

	first := run()
	assert.Equal(t, 2, reg.adds)
	require.Len(t, first, 2)
	assert.Equal(t, sumOf("alpha"), first[0].Record.Checksum)
	assert.Equal(t, uint64(5), first[0].Record.Size)
	assert.NotEqual(t, first[0].Record.GUID, first[1].Record.GUID, "every entry gets its own guid")

	second := run()
	assert.Equal(t, 2, reg.adds, "second run performs zero AddEntry calls")
	for _, oc := range second {
		assert.Equal(t, status.StatusAlreadyRegistered, oc.Status)
	}
}

func TestRegisterSkipsDirectoriesWithoutCatalogueQuery(t *testing.T) {
	ctx, mux, fs := setupMux(t)
	writeFiles(t, fs, map[string]string{
		"/grid/a.dat":     "alpha",
		"/grid/sub/b.dat": "bravo",
	})

	absent := catalogue.NewExistsResult()
	absent.Absent["/lfn/a.dat"] = struct{}{}
	ok := catalogue.NewAddResult()
	ok.Successful["/lfn/a.dat"] = struct{}{}

	reg := &MockRegistry{}
	reg.On("DirectoryExists", mock.Anything, "/lfn/").Return(true, nil)
	reg.On("FileExists", mock.Anything, []string{"/lfn/a.dat"}).Return(absent, nil)
	reg.On("AddEntry", mock.Anything, mock.Anything).Return(ok, nil).Once()

	mgr := status.New(nil)
	outcomes, err := Register(ctx, RegisterInput{
		Registry:       reg,
		Transport:      mux,
		Candidates:     FreshPaths([]string{"/grid/a.dat", "/grid/sub"}),
		StorageElement: "SE-PRIMARY",
		LFNRoot:        "/lfn/",
		Reporter:       mgr,
	})
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, status.StatusRegistered, outcomes[0].Status)
	assert.Equal(t, 1, mgr.Counts()[status.StatusSkippedDirectory])
	assert.Zero(t, mgr.Counts()[status.StatusAlreadyRegistered])
	reg.AssertNotCalled(t, "FileExists", mock.Anything, []string{"/lfn/sub"})
	reg.AssertExpectations(t)
}

func TestRegisterEntryShape(t *testing.T) {
	ctx := setupTestLogger(t)
	reg := &MockRegistry{}

	absent := catalogue.NewExistsResult()
	absent.Absent["/lfn/x.dat"] = struct{}{}
	ok := catalogue.NewAddResult()
	ok.Successful["/lfn/x.dat"] = struct{}{}

	reg.On("DirectoryExists", mock.Anything, "/lfn/").Return(true, nil)
	reg.On("FileExists", mock.Anything, []string{"/lfn/x.dat"}).Return(absent, nil)
	reg.On("AddEntry", mock.Anything, []catalogue.Entry{{
		LFN:            "/lfn/x.dat",
		PhysicalPath:   "s3://bucket/x.dat",
		Size:           1024,
		StorageElement: "SE-S3",
		GUID:           "fixed-guid",
		Checksum:       "3a9f0231",
		ChecksumType:   "ADLER32",
	}}).Return(ok, nil).Once()

	_, err := Register(ctx, RegisterInput{
		Registry:       reg,
		Candidates:     LoggedRecords([]state.FileRecord{{PhysicalPath: "s3://bucket/x.dat", Size: 1024, Checksum: "3a9f0231"}}),
		StorageElement: "SE-S3",
		LFNRoot:        "/lfn/",
		NewGUID:        func() string { return "fixed-guid" },
	})
	require.NoError(t, err)
	reg.AssertExpectations(t)
	reg.AssertNotCalled(t, "CreateDirectory", mock.Anything, mock.Anything)
}

func TestRegisterFailures(t *testing.T) {
	absent := catalogue.NewExistsResult()
	absent.Absent["/lfn/a.dat"] = struct{}{}

	rejected := catalogue.NewAddResult()
	rejected.Failed["/lfn/a.dat"] = "parent directory does not exist"

	unconfirmed := catalogue.NewAddResult()

	tests := []struct {
		name        string
		setup       func(reg *MockRegistry)
		wantErr     error
		errContains string
	}{
		{
			name: "overall_failure",
			setup: func(reg *MockRegistry) {
				reg.On("FileExists", mock.Anything, []string{"/lfn/a.dat"}).Return(absent, nil)
				reg.On("AddEntry", mock.Anything, mock.Anything).Return(catalogue.NewAddResult(), catalogue.ErrCatalogueFailure)
			},
			wantErr: catalogue.ErrCatalogueFailure,
		},
		{
			name: "per_entry_failure",
			setup: func(reg *MockRegistry) {
				reg.On("FileExists", mock.Anything, []string{"/lfn/a.dat"}).Return(absent, nil)
				reg.On("AddEntry", mock.Anything, mock.Anything).Return(rejected, nil)
			},
			wantErr:     catalogue.ErrEntryRejected,
			errContains: "parent directory does not exist",
		},
		{
			name: "entry_not_confirmed",
			setup: func(reg *MockRegistry) {
				reg.On("FileExists", mock.Anything, []string{"/lfn/a.dat"}).Return(absent, nil)
				reg.On("AddEntry", mock.Anything, mock.Anything).Return(unconfirmed, nil)
			},
			wantErr: catalogue.ErrEntryRejected,
		},
		{
			name: "ambiguous_existence",
			setup: func(reg *MockRegistry) {
				reg.On("FileExists", mock.Anything, []string{"/lfn/a.dat"}).Return(catalogue.NewExistsResult(), nil)
			},
			wantErr: catalogue.ErrAmbiguousPresence,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestLogger(t)
			reg := &MockRegistry{}
			reg.On("DirectoryExists", mock.Anything, "/lfn/").Return(true, nil)
			tt.setup(reg)

			outcomes, err := Register(ctx, RegisterInput{
				Registry: reg,
				Candidates: LoggedRecords([]state.FileRecord{
					{PhysicalPath: "/grid/a.dat", Size: 1, Checksum: "00620062"},
					{PhysicalPath: "/grid/b.dat", Size: 1, Checksum: "00630063"},
				}),
				StorageElement: "SE",
				LFNRoot:        "/lfn/",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
			assert.Empty(t, outcomes)
			reg.AssertNotCalled(t, "FileExists", mock.Anything, []string{"/lfn/b.dat"})
		})
	}
}
