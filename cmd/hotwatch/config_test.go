package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if cfg.Listen != ":8090" || cfg.DBPath != "data/hotwatch.db" {
		t.Errorf("defaults: got %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotwatch.yaml")
	data := `
listen: ":9000"
db_path: /var/lib/hotwatch/hot.db
log_level: debug
word_groups:
  - group_key: 疫情
    required: [疫情]
    max_count: 5
  - group_key: 股市
    normal: [股市, 大盘]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9000" || cfg.LogLevel != "debug" {
		t.Errorf("config: got %+v", cfg)
	}
	if len(cfg.WordGroups) != 2 {
		t.Fatalf("word groups: got %d", len(cfg.WordGroups))
	}

	inputs := cfg.groupInputs()
	if inputs[0].GroupKey != "疫情" || inputs[0].MaxDisplayCount != 5 {
		t.Errorf("first group: got %+v", inputs[0])
	}
	if len(inputs[1].Normal) != 2 {
		t.Errorf("second group normal words: got %v", inputs[1].Normal)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/hotwatch.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
