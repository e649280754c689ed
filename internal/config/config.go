// Package config loads global signet settings from ~/.signet/config.yaml
// with SIGNET_* environment overrides.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds global signet settings from ~/.signet/config.yaml.
type GlobalConfig struct {
	// Region is the default signing region.
	Region string `yaml:"region"`
	// Profile is the default credentials file profile.
	Profile string `yaml:"profile"`
	// MetadataEndpoint overrides the instance metadata endpoint.
	MetadataEndpoint string `yaml:"metadata_endpoint"`
}

// DefaultGlobalConfig returns the default global configuration.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Region: "us-east-1",
	}
}

// LoadGlobal reads ~/.signet/config.yaml and applies environment overrides.
func LoadGlobal() (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	// Try to load from file
	if data, err := os.ReadFile(filepath.Join(GlobalConfigDir(), "config.yaml")); err == nil {
		_ = yaml.Unmarshal(data, cfg) // Ignore unmarshal errors, use defaults
	}

	// Apply environment overrides
	if region := os.Getenv("SIGNET_REGION"); region != "" {
		cfg.Region = region
	}
	if profile := os.Getenv("SIGNET_PROFILE"); profile != "" {
		cfg.Profile = profile
	}
	if endpoint := os.Getenv("SIGNET_METADATA_ENDPOINT"); endpoint != "" {
		cfg.MetadataEndpoint = endpoint
	}

	return cfg, nil
}

// GlobalConfigDir returns the path to ~/.signet.
func GlobalConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".signet")
	}
	return filepath.Join(homeDir, ".signet")
}
