package types

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type RunConfig struct {
	OutputRoot     string   `json:"output_root" yaml:"output_root"`
	Profile        Profile  `json:"profile" yaml:"profile"`
	Exporters      []string `json:"exporters,omitempty" yaml:"exporters"`
	Compression    string   `json:"compression" yaml:"compression"`
	PNGCompression string   `json:"png_compression" yaml:"png_compression"`
	Rollback       bool     `json:"rollback" yaml:"rollback"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`
	LogFormat      string   `json:"log_format" yaml:"log_format"`

	// Registry is the repository the push exporter uploads to, such as
	// registry.example.com/posters.
	Registry         string `json:"registry,omitempty" yaml:"registry"`
	RegistryInsecure bool   `json:"registry_insecure,omitempty" yaml:"registry_insecure"`
}

func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Profile:        ProfileFull,
		Compression:    "zstd",
		PNGCompression: "best",
		Rollback:       true,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadRunConfig reads a YAML run configuration on top of the defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	config := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %v", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *RunConfig) Validate() error {
	profile, err := ParseProfile(string(c.Profile))
	if err != nil {
		return err
	}
	c.Profile = profile

	switch strings.ToLower(c.Compression) {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported compression %q", c.Compression)
	}

	switch strings.ToLower(c.PNGCompression) {
	case "", "default", "best", "fast", "none":
	default:
		return fmt.Errorf("unsupported png compression %q", c.PNGCompression)
	}

	for _, name := range c.Exporters {
		if name == "push" && c.Registry == "" {
			return fmt.Errorf("exporter push requires a registry")
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}
