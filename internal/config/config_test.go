package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Parser.DensityThreshold != 1.0 {
		t.Errorf("expected density threshold 1.0, got %f", cfg.Parser.DensityThreshold)
	}
	if cfg.Parser.OCRConfidenceCap != 0.8 {
		t.Errorf("expected OCR confidence cap 0.8, got %f", cfg.Parser.OCRConfidenceCap)
	}
	if cfg.Parser.OCRConfidence > cfg.Parser.OCRConfidenceCap {
		t.Error("default OCR confidence should not exceed the cap")
	}
	if cfg.Parser.TemplateConfidence <= cfg.Parser.LayoutConfidence {
		t.Error("template confidence should exceed layout confidence by default")
	}
	if cfg.Parser.StrategyTimeout() != 5*time.Second {
		t.Errorf("expected 5s strategy timeout, got %v", cfg.Parser.StrategyTimeout())
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("expected default watch extensions")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Parser.DensityThreshold = 2.5
	cfg.Parser.OCRConfidenceCap = 0.6
	ApplyDefaults(cfg)
	if cfg.Parser.DensityThreshold != 2.5 {
		t.Errorf("explicit density threshold overwritten: %f", cfg.Parser.DensityThreshold)
	}
	if cfg.Parser.OCRConfidenceCap != 0.6 {
		t.Errorf("explicit OCR cap overwritten: %f", cfg.Parser.OCRConfidenceCap)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
parser:
  density_threshold: 0.8
  ocr_language: eng+fra
server:
  port: 9090
watch:
  directories:
    - ./drop
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected debug true")
	}
	if cfg.Parser.DensityThreshold != 0.8 {
		t.Errorf("expected density threshold 0.8, got %f", cfg.Parser.DensityThreshold)
	}
	if cfg.Parser.OCRLanguage != "eng+fra" {
		t.Errorf("expected ocr language eng+fra, got %s", cfg.Parser.OCRLanguage)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	// Defaults still fill unset values.
	if cfg.Parser.ValueWindow != 6 {
		t.Errorf("expected default value window 6, got %d", cfg.Parser.ValueWindow)
	}
	// Relative watch dir expands against the config dir.
	want := filepath.Join(dir, "drop")
	if cfg.Watch.Directories[0] != want {
		t.Errorf("expected watch dir %s, got %s", want, cfg.Watch.Directories[0])
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("parser: [not a map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
