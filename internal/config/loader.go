package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".markscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file structure.
// Every field is optional; zero values leave the corresponding Config
// default untouched.
type File struct {
	// Backends overrides the ordered OCR backend priority list.
	Backends []string `yaml:"backends,omitempty"`

	// Sources overrides the ordered datasheet source cascade.
	Sources []string `yaml:"sources,omitempty"`

	// Weights overrides the six verification check weights.
	Weights *CheckWeights `yaml:"weights,omitempty"`

	// PassThreshold overrides the per-check pass threshold.
	PassThreshold float64 `yaml:"pass_threshold,omitempty"`

	// CacheTTL overrides the specification cache TTL, e.g. "720h".
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`

	// BackendTimeout overrides the per-backend OCR timeout.
	BackendTimeout time.Duration `yaml:"backend_timeout,omitempty"`

	// SourceTimeout overrides the per-source query timeout.
	SourceTimeout time.Duration `yaml:"source_timeout,omitempty"`

	// MaxDateCodeAge overrides the maximum plausible component age in years.
	MaxDateCodeAge int `yaml:"max_date_code_age,omitempty"`

	// SourceEndpoints maps source names to base URL overrides.
	// Useful for pointing a source class at a mirror or a test server.
	SourceEndpoints map[string]string `yaml:"source_endpoints,omitempty"`

	// OCREndpoint is the URL of the HTTP OCR backend, if used.
	OCREndpoint string `yaml:"ocr_endpoint,omitempty"`

	// Tables extends or overrides the built-in lookup tables.
	Tables *Tables `yaml:"tables,omitempty"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether the
// config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// Apply overlays the file's non-zero values onto the config.
// The resulting config still goes through Validate; a file with bad
// weights is rejected the same way bad flags are.
func (f *File) Apply(c *Config) {
	if len(f.Backends) > 0 {
		c.Backends = f.Backends
	}
	if len(f.Sources) > 0 {
		c.Sources = f.Sources
	}
	if f.Weights != nil {
		c.Weights = *f.Weights
	}
	if f.PassThreshold > 0 {
		c.PassThreshold = f.PassThreshold
	}
	if f.CacheTTL > 0 {
		c.CacheTTL = f.CacheTTL
	}
	if f.BackendTimeout > 0 {
		c.BackendTimeout = f.BackendTimeout
	}
	if f.SourceTimeout > 0 {
		c.SourceTimeout = f.SourceTimeout
	}
	if f.MaxDateCodeAge > 0 {
		c.MaxDateCodeAge = f.MaxDateCodeAge
	}
	if len(f.SourceEndpoints) > 0 {
		if c.SourceEndpoints == nil {
			c.SourceEndpoints = make(map[string]string, len(f.SourceEndpoints))
		}
		for name, endpoint := range f.SourceEndpoints {
			c.SourceEndpoints[name] = endpoint
		}
	}
	if f.OCREndpoint != "" {
		c.OCREndpoint = f.OCREndpoint
	}
	if f.Tables != nil {
		c.Tables.Merge(f.Tables)
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .markscan in the current directory
// 3. Look for .markscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
