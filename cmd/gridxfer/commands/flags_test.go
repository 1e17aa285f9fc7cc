package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gridxfer/pkg/config"
)

func TestRunFlagsApply(t *testing.T) {
	base := config.Default()
	base.Source = "/from/config"
	base.Destination = "/config/dst/"
	base.Exclude = []string{"*.tmp"}

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "unset_flags_keep_config",
			args: []string{},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/from/config", cfg.Source)
				assert.Equal(t, []string{"*.tmp"}, cfg.Exclude)
			},
		},
		{
			name: "set_flags_override",
			args: []string{"-s", "/from/flag", "--exclude", "*.log", "--exclude", "*.bak", "-t"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/from/flag", cfg.Source)
				assert.Equal(t, "/config/dst/", cfg.Destination)
				assert.Equal(t, []string{"*.log", "*.bak"}, cfg.Exclude)
				assert.True(t, cfg.Transfer)
				assert.False(t, cfg.Register)
			},
		},
		{
			name: "short_flags",
			args: []string{"-d", "/d/", "-e", "SE", "-l", "/lfn/", "-o", "out.log", "-i", "in.log", "-r"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/d/", cfg.Destination)
				assert.Equal(t, "SE", cfg.StorageElement)
				assert.Equal(t, "/lfn/", cfg.LFNRoot)
				assert.Equal(t, "out.log", cfg.OutputLog)
				assert.Equal(t, "in.log", cfg.InputLog)
				assert.True(t, cfg.Register)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &runFlags{}
			cmd := &cobra.Command{Use: "test"}
			addRunFlags(cmd, f, true)
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := f.apply(cmd, base)
			tt.check(t, cfg)
			assert.Equal(t, "/from/config", base.Source, "base is not modified")
			assert.Equal(t, []string{"*.tmp"}, base.Exclude)
		})
	}
}
