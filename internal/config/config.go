// Package config loads the operator manifest: where the native libraries
// live, how to build them, and which operators they back.
package config

import (
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvInstallDir overrides InstallDir when set.
const EnvInstallDir = "SNN_INSTALL_DIR"

// CurrentABIVersion is the snn_abi_version the bundled recipe produces.
const CurrentABIVersion = 1

// Source selects what backs the operators.
type Source string

// Supported sources.
const (
	SourceNative  Source = "native"  // precompiled libraries loaded through FFI
	SourceBuiltin Source = "builtin" // pure Go reference kernels
)

// Operator binds one operator name to its library and default attributes.
type Operator struct {
	Name    string `yaml:"name"`
	Library string `yaml:"library"`
	// Threshold and Slope default to the kernel defaults when nil.
	Threshold *float64 `yaml:"threshold,omitempty"`
	Slope     *float64 `yaml:"slope,omitempty"`
}

// Config is the operator manifest.
type Config struct {
	InstallDir   string     `yaml:"install_dir"`
	LibraryDir   string     `yaml:"library_dir"`
	RecipeDir    string     `yaml:"recipe_dir"`
	BuildCommand string     `yaml:"build_command"`
	BuildArgs    []string   `yaml:"build_args,omitempty"`
	ABIVersion   int32      `yaml:"abi_version"`
	Source       Source     `yaml:"source"`
	AutoBuild    bool       `yaml:"auto_build"`
	Operators    []Operator `yaml:"operators"`
}

// Default returns the layout the operator sources ship with: libraries in
// so_file/, the Makefile in custom_ops/, one library per operator.
func Default() Config {
	return Config{
		InstallDir:   ".",
		LibraryDir:   "so_file",
		RecipeDir:    "custom_ops",
		BuildCommand: "make",
		ABIVersion:   CurrentABIVersion,
		Source:       SourceNative,
		AutoBuild:    true,
		Operators: []Operator{
			{Name: "Heaviside", Library: "heaviside_custom_ops.so"},
			{Name: "StraightThroughEstimator", Library: "straight_through_estimator_custom_ops.so"},
			{Name: "FastSigmoid", Library: "fast_sigmoid_custom_ops.so"},
		},
	}
}

// Load reads the manifest at path over Default. Operators in the file are
// merged by name; unknown keys are rejected. An empty path loads only the
// defaults. The SNN_INSTALL_DIR environment variable wins over the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: manifest path is user-provided by design
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer func() { _ = f.Close() }()

	base := c.Operators
	c.Operators = nil

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return errors.Wrapf(err, "decode config %s", path)
	}
	c.Operators = mergeOperators(base, c.Operators)
	return nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvInstallDir); dir != "" {
		c.InstallDir = dir
	}
}

// mergeOperators applies override entries onto base by name and appends new ones.
func mergeOperators(base, override []Operator) []Operator {
	out := append([]Operator(nil), base...)
	for _, o := range override {
		i := indexOf(out, o.Name)
		if i < 0 {
			out = append(out, o)
			continue
		}
		if o.Library != "" {
			out[i].Library = o.Library
		}
		if o.Threshold != nil {
			out[i].Threshold = o.Threshold
		}
		if o.Slope != nil {
			out[i].Slope = o.Slope
		}
	}
	return out
}

func indexOf(ops []Operator, name string) int {
	for i := range ops {
		if ops[i].Name == name {
			return i
		}
	}
	return -1
}

// Operator returns the entry for name.
func (c Config) Operator(name string) (Operator, bool) {
	i := indexOf(c.Operators, name)
	if i < 0 {
		return Operator{}, false
	}
	return c.Operators[i], true
}

// OperatorNames lists the configured operators in manifest order.
func (c Config) OperatorNames() []string {
	names := make([]string, len(c.Operators))
	for i, op := range c.Operators {
		names[i] = op.Name
	}
	return names
}

// ArtifactPath returns the library of op relative to InstallDir, slash separated.
func (c Config) ArtifactPath(op Operator) string {
	return path.Join(filepath.ToSlash(c.LibraryDir), op.Library)
}

// ArtifactPaths lists every library relative to InstallDir, one per operator.
func (c Config) ArtifactPaths() []string {
	out := make([]string, len(c.Operators))
	for i, op := range c.Operators {
		out[i] = c.ArtifactPath(op)
	}
	return out
}

// LibraryPath returns the on-disk library of op.
func (c Config) LibraryPath(op Operator) string {
	return filepath.Join(c.InstallDir, filepath.FromSlash(c.ArtifactPath(op)))
}

// RecipePath returns the directory the build command runs in.
func (c Config) RecipePath() string {
	if filepath.IsAbs(c.RecipeDir) {
		return c.RecipeDir
	}
	return filepath.Join(c.InstallDir, c.RecipeDir)
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	return out, errors.Wrap(err, "encode config")
}
