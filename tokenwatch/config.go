// CLAUDE:SUMMARY Service configuration (settings db, platform overrides, watched page, browser, sinks) and YAML loader.
package tokenwatch

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/tokenwatch/classify"
)

// Config holds the service configuration.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	PlatformsFile string        `yaml:"platforms_file"`
	Listen        string        `yaml:"listen"`
	Page          PageConfig    `yaml:"page"`
	Browser       BrowserConfig `yaml:"browser"`
	Monitor       MonitorConfig `yaml:"monitor"`
	Sinks         []SinkConfig  `yaml:"sinks"`

	// Classify recalibrates the content-pattern role heuristic. Unset
	// fields keep the stock values.
	Classify *classify.ContentThresholds `yaml:"classify"`
}

// PageConfig selects the page to monitor. An empty URL disables monitoring;
// the one-shot estimation surfaces stay available.
type PageConfig struct {
	URL    string `yaml:"url"`
	Source string `yaml:"source"` // browser (default), http, file
	File   string `yaml:"file"`   // for source: file
}

// BrowserConfig controls the Chrome instance used by the browser source.
type BrowserConfig struct {
	Remote     string        `yaml:"remote"`
	Headful    bool          `yaml:"headful"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// MonitorConfig tunes the monitor loop.
type MonitorConfig struct {
	SettleDelay      time.Duration `yaml:"settle_delay"`
	WarnCooldown     time.Duration `yaml:"warn_cooldown"`
	CriticalCooldown time.Duration `yaml:"critical_cooldown"`
	ReloadInterval   time.Duration `yaml:"reload_interval"`
}

// SinkConfig declares one report output.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout, stderr, webhook
	URL  string `yaml:"url"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "tokenwatch.db"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8791"
	}
	if c.Page.Source == "" {
		c.Page.Source = "browser"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Monitor.SettleDelay <= 0 {
		c.Monitor.SettleDelay = time.Second
	}
	if c.Monitor.WarnCooldown <= 0 {
		c.Monitor.WarnCooldown = 5 * time.Minute
	}
	if c.Monitor.CriticalCooldown <= 0 {
		c.Monitor.CriticalCooldown = 10 * time.Minute
	}
	if c.Monitor.ReloadInterval <= 0 {
		c.Monitor.ReloadInterval = 2 * time.Second
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	if c.Classify != nil {
		d := classify.DefaultThresholds()
		if c.Classify.MinLen <= 0 {
			c.Classify.MinLen = d.MinLen
		}
		if c.Classify.UserMaxLen <= 0 {
			c.Classify.UserMaxLen = d.UserMaxLen
		}
		if c.Classify.AssistantMinLen <= 0 {
			c.Classify.AssistantMinLen = d.AssistantMinLen
		}
		if c.Classify.UserMarkers == nil {
			c.Classify.UserMarkers = d.UserMarkers
		}
		if c.Classify.AssistantMarkers == nil {
			c.Classify.AssistantMarkers = d.AssistantMarkers
		}
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
	return cfg, nil
}
