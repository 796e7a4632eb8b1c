package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "snn.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	want := []string{
		"so_file/heaviside_custom_ops.so",
		"so_file/straight_through_estimator_custom_ops.so",
		"so_file/fast_sigmoid_custom_ops.so",
	}
	if diff := cmp.Diff(want, cfg.ArtifactPaths()); diff != "" {
		t.Errorf("ArtifactPaths() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, filepath.Join(".", "custom_ops"), cfg.RecipePath())
	assert.Equal(t, SourceNative, cfg.Source)
	assert.True(t, cfg.AutoBuild)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverlaysAndMergesOperators(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	p := writeManifest(t, `
install_dir: /opt/snn
auto_build: false
operators:
  - name: FastSigmoid
    slope: 10
  - name: Custom
    library: custom.so
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/opt/snn", cfg.InstallDir)
	assert.False(t, cfg.AutoBuild)
	assert.Equal(t, "so_file", cfg.LibraryDir, "unset keys keep defaults")
	assert.Equal(t, []string{"Heaviside", "StraightThroughEstimator", "FastSigmoid", "Custom"}, cfg.OperatorNames())

	fs, ok := cfg.Operator("FastSigmoid")
	require.True(t, ok)
	assert.Equal(t, "fast_sigmoid_custom_ops.so", fs.Library)
	require.NotNil(t, fs.Slope)
	assert.InDelta(t, 10.0, *fs.Slope, 1e-12)
	assert.Nil(t, fs.Threshold)

	custom, _ := cfg.Operator("Custom")
	assert.Equal(t, filepath.Join("/opt/snn", "so_file", "custom.so"), cfg.LibraryPath(custom))
}

func TestLoad_EnvOverridesInstallDir(t *testing.T) {
	t.Setenv(EnvInstallDir, "/srv/ops")
	p := writeManifest(t, "install_dir: /opt/snn\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ops", cfg.InstallDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvInstallDir, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeManifest(t, "instal_dir: typo\n"))
	require.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeManifest(t, "source: gpu\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty install dir", func(c *Config) { c.InstallDir = "" }, "install_dir"},
		{"bad source", func(c *Config) { c.Source = "gpu" }, "source"},
		{"negative abi", func(c *Config) { c.ABIVersion = -2 }, "abi_version"},
		{"no operators", func(c *Config) { c.Operators = nil }, "operators"},
		{"auto build without command", func(c *Config) { c.BuildCommand = "" }, "build_command"},
		{"duplicate name", func(c *Config) { c.Operators[1].Name = "Heaviside" }, "operators[1].name"},
		{"empty library", func(c *Config) { c.Operators[2].Library = "" }, "operators[2].library"},
		{"negative slope", func(c *Config) { c.Operators[2].Slope = &neg }, "operators[2].slope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_BuiltinNeedsNoLibraries(t *testing.T) {
	cfg := Default()
	cfg.Source = SourceBuiltin
	cfg.LibraryDir = ""
	cfg.BuildCommand = ""
	for i := range cfg.Operators {
		cfg.Operators[i].Library = ""
	}
	assert.NoError(t, cfg.Validate())
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	cfg := Default()
	slope := 5.0
	cfg.Operators[2].Slope = &slope

	data, err := cfg.Marshal()
	require.NoError(t, err)

	got, err := Load(writeManifest(t, string(data)))
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
