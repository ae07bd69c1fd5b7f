package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRefreshInterval = 15 * time.Second
	minRefreshInterval     = 5 * time.Second
)

// Config holds optional CLI defaults loaded from ~/.config/natify/config.yaml.
type Config struct {
	DefaultProfile      string `yaml:"default_profile"`
	DefaultRegion       string `yaml:"default_region"`
	AutoRefreshInterval int    `yaml:"auto_refresh_interval"` // seconds
	GitHubRepo          string `yaml:"github_repo"`
	PlanFile            string `yaml:"plan_file"`
}

// Path returns the config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "natify", "config.yaml"), nil
}

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// RefreshInterval is the status dashboard's refresh period: 15s unless
// configured, never below 5s.
func (c *Config) RefreshInterval() time.Duration {
	if c.AutoRefreshInterval <= 0 {
		return defaultRefreshInterval
	}
	d := time.Duration(c.AutoRefreshInterval) * time.Second
	if d < minRefreshInterval {
		return minRefreshInterval
	}
	return d
}
