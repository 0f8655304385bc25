package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erraggy/oasprep/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConfigFlags(t *testing.T) {
	fs, flags := SetupConfigFlags()
	assert.Equal(t, FormatYAML, flags.Format)

	require.NoError(t, fs.Parse([]string{"--generators", "--format", "json", "-c", "x.yaml"}))
	assert.True(t, flags.Generators)
	assert.Equal(t, FormatJSON, flags.Format)
	assert.Equal(t, "x.yaml", flags.Config)
}

func TestHandleConfig_Help(t *testing.T) {
	assert.NoError(t, HandleConfig([]string{"--help"}))
}

func TestHandleConfig_Init(t *testing.T) {
	dir := chdir(t)

	require.NoError(t, HandleConfig([]string{"--init"}))

	path := filepath.Join(dir, config.DefaultFileName)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSource, cfg.Source)
	require.NotNil(t, cfg.Generators)
	require.NotNil(t, cfg.Generators.Kubb)

	t.Run("refuses to overwrite", func(t *testing.T) {
		assert.Error(t, HandleConfig([]string{"--init"}))
	})

	t.Run("force overwrites", func(t *testing.T) {
		assert.NoError(t, HandleConfig([]string{"--init", "--force"}))
	})
}

func TestHandleConfig_Print(t *testing.T) {
	chdir(t)

	tests := []struct {
		name string
		args []string
	}{
		{"yaml", nil},
		{"json", []string{"--format", "json"}},
		{"generators json", []string{"--generators", "--format", "json"}},
		{"generators yaml", []string{"--generators"}},
		{"validate defaults", []string{"--validate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, HandleConfig(tt.args))
		})
	}
}

func TestHandleConfig_Errors(t *testing.T) {
	dir := chdir(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("transforms:\n  nullable:\n    style: sometimes\n"), 0o600))
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("sourze: x\n"), 0o600))

	tests := []struct {
		name string
		args []string
	}{
		{"invalid value", []string{"--validate", "-c", bad}},
		{"unknown key", []string{"--validate", "-c", unknown}},
		{"missing file", []string{"-c", filepath.Join(dir, "missing.yaml")}},
		{"bad format", []string{"--format", "toml"}},
		{"positional arg", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, HandleConfig(tt.args))
		})
	}
}
