package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/hotwatch/hotlist"
)

// Config is the hotwatch server configuration, including the word-group
// ruleset that gets synced wholesale at startup.
type Config struct {
	Listen      string            `yaml:"listen"`
	DBPath      string            `yaml:"db_path"`
	LogLevel    string            `yaml:"log_level"`
	MaxTitleLen int               `yaml:"max_title_len"`
	WordGroups  []WordGroupConfig `yaml:"word_groups"`
}

// WordGroupConfig is one classification rule as written in YAML.
type WordGroupConfig struct {
	GroupKey string   `yaml:"group_key"`
	Required []string `yaml:"required"`
	Normal   []string `yaml:"normal"`
	MaxCount int      `yaml:"max_count"`
}

func defaultServerConfig() *Config {
	return &Config{
		Listen:   ":8090",
		DBPath:   "data/hotwatch.db",
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML configuration file. A missing path returns the
// defaults so the server can run from env vars alone.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8090"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/hotwatch.db"
	}
	return cfg, nil
}

// groupInputs converts the YAML ruleset to the sync input shape.
func (c *Config) groupInputs() []*hotlist.WordGroupInput {
	groups := make([]*hotlist.WordGroupInput, 0, len(c.WordGroups))
	for _, g := range c.WordGroups {
		groups = append(groups, &hotlist.WordGroupInput{
			GroupKey:        g.GroupKey,
			Required:        g.Required,
			Normal:          g.Normal,
			MaxDisplayCount: g.MaxCount,
		})
	}
	return groups
}
