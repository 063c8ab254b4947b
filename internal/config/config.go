// Package config loads the sharpgen.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the project file sharpgen looks for.
const FileName = "sharpgen.yaml"

// DefaultConfiguration is the build configuration used when none is given.
const DefaultConfiguration = "Debug"

// ConfigurationToken is replaced by the build configuration in Contract.
const ConfigurationToken = "{config}"

// ErrNotFound is returned by Find when no project file exists above the
// starting directory.
var ErrNotFound = errors.New(FileName + " not found")

var validate = validator.New()

// Config is a sharpgen project.
type Config struct {
	// Contract is the path template of a contract description. It may
	// contain {config}, replaced by the build configuration.
	Contract string `yaml:"contract" validate:"required_without=Packages,excluded_with=Packages"`

	// Packages are Go package patterns to extract services from.
	Packages []string `yaml:"packages" validate:"omitempty,dive,required"`

	// BaseType is the embedded struct name marking Go service definitions.
	BaseType string `yaml:"base_type"`

	Renderers []Renderer `yaml:"renderers" validate:"required,min=1,dive"`

	// Root is the directory containing the project file. Relative paths
	// resolve against it.
	Root string `yaml:"-"`
}

// Renderer configures one render target.
type Renderer struct {
	Target string `yaml:"target" validate:"required"`

	// Output is the directory the target owns.
	Output string `yaml:"output" validate:"required"`

	// Exclude lists service display names to skip.
	Exclude []string `yaml:"exclude"`

	// Options are target-specific settings.
	Options map[string]string `yaml:"options"`
}

// Find walks up from dir to the first directory holding FileName and
// returns the path of the file.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load reads and validates the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Root = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes and validates a project file. Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty config")
		}
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Configuration normalizes a build configuration argument: surrounding
// quotes are stripped and an empty value means DefaultConfiguration.
func Configuration(arg string) string {
	arg = strings.Trim(strings.TrimSpace(arg), `"'`)
	if arg == "" {
		return DefaultConfiguration
	}
	return arg
}

// ContractPath returns the contract description path for a build
// configuration.
func (c *Config) ContractPath(configuration string) string {
	return c.resolve(strings.ReplaceAll(c.Contract, ConfigurationToken, Configuration(configuration)))
}

// OutputDir returns the absolute output directory of r.
func (c *Config) OutputDir(r Renderer) string {
	return c.resolve(r.Output)
}

// PackageDir returns the directory Go packages are loaded from.
func (c *Config) PackageDir() string {
	return c.resolve(".")
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Root, path)
}
