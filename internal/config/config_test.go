package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyleseneker/tinyld/internal/elf64"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		noFile  bool
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file",
			body: ``,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, Default(), cfg)
			},
		},
		{
			name: "full yaml",
			body: `
policy:
  os_abi: [sysv, linux, "9"]
jobs: 4
max_input_size: 512MiB
checks:
  disable: [alignment, shstrndx]
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, []elf64.OSABI{elf64.ELFOSABI_NONE, elf64.ELFOSABI_LINUX, elf64.ELFOSABI_FREEBSD}, cfg.OSABIs)
				require.Equal(t, 4, cfg.Jobs)
				require.Equal(t, uint64(512<<20), cfg.MaxInputSize)
				require.Equal(t, []string{"alignment", "shstrndx"}, cfg.DisabledChecks)
				require.Equal(t, cfg.OSABIs, cfg.Policy().OSABIs)
			},
		},
		{
			name: "json",
			body: `{"policy": {"os_abi": ["ELFOSABI_NETBSD"]}, "max_input_size": "2 MB"}`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, []elf64.OSABI{elf64.ELFOSABI_NETBSD}, cfg.OSABIs)
				require.Equal(t, 1, cfg.Jobs)
				require.Equal(t, uint64(2000000), cfg.MaxInputSize)
			},
		},
		{
			name:    "unknown os abi",
			body:    "policy:\n  os_abi: [sysv, plan9]\n",
			wantErr: `policy.os_abi[1]: unknown OS ABI "plan9"`,
		},
		{
			name:    "zero jobs",
			body:    "jobs: 0\n",
			wantErr: "jobs: must be at least 1, got 0",
		},
		{
			name:    "bad size",
			body:    "max_input_size: lots\n",
			wantErr: "max_input_size",
		},
		{
			name:    "unknown rule",
			body:    "checks:\n  disable: [symbols]\n",
			wantErr: `checks.disable[0]: unknown rule "symbols"`,
		},
		{
			name:    "unknown field",
			body:    "jbos: 2\n",
			wantErr: "parsing config",
		},
		{
			name:    "invalid yaml",
			body:    "policy: [",
			wantErr: "parsing config",
		},
		{
			name:    "missing file",
			noFile:  true,
			wantErr: "reading config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/does/not/exist/tinyld.yaml"
			if !tt.noFile {
				path = filepath.Join(t.TempDir(), "tinyld.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	cfg := Default()
	require.Equal(t, elf64.DefaultPolicy, cfg.Policy())
	cfg.OSABIs[0] = elf64.ELFOSABI_LINUX
	require.Equal(t, elf64.ELFOSABI_NONE, elf64.DefaultPolicy.OSABIs[0])
}
