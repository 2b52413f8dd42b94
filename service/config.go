// CLAUDE:SUMMARY Configuration structs (browser, artifacts, HTTP) and YAML loader for the domsnap service.
package service

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all domsnap service configuration.
type Config struct {
	WorkspaceRoot string          `yaml:"workspace_root"`
	HTTPAddr      string          `yaml:"http_addr"`
	Browser       BrowserConfig   `yaml:"browser"`
	Artifacts     ArtifactsConfig `yaml:"artifacts"`
}

// BrowserConfig controls the managed Chrome instance.
type BrowserConfig struct {
	RemoteURL        string        `yaml:"remote_url"`
	Headful          bool          `yaml:"headful"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
}

// ArtifactsConfig controls optional per-capture artifacts.
type ArtifactsConfig struct {
	JournalPath string `yaml:"journal_path"`
	Readable    bool   `yaml:"readable"`
}

func (c *Config) defaults() {
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = "."
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"images", "fonts", "media"}
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}
