package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		l := newLogger(tt.level)
		if !l.Enabled(context.Background(), tt.want) {
			t.Errorf("level %q: %v should be enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && l.Enabled(context.Background(), tt.want-1) {
			t.Errorf("level %q: below %v should be disabled", tt.level, tt.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if len(cfg.Categories) != 6 {
		t.Errorf("default config: got %d categories", len(cfg.Categories))
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loadConfig should fail for a missing file")
	}
}

func TestRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.yaml")
	if err := runConfig([]string{"-out", path}); err != nil {
		t.Fatalf("runConfig failed: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	a, err := newAnalyzer(cfg, slog.Default())
	if err != nil {
		t.Fatalf("newAnalyzer failed: %v", err)
	}
	if len(a.Table()) != 6 {
		t.Errorf("analyzer table: got %d categories", len(a.Table()))
	}
}

func TestRunBatch_RequiresDirs(t *testing.T) {
	if err := runBatch(context.Background(), slog.Default(), []string{"-in", t.TempDir()}); err == nil {
		t.Error("runBatch should fail without -out")
	}
}
