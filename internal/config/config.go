// Package config provides configuration loading and structs for sheetscan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Parser ParserConfig `yaml:"parser"`
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
}

// ParserConfig holds extraction pipeline settings. The confidence values are
// policy constants, not derived quantities; they are configurable so deployments
// can recalibrate without a rebuild.
type ParserConfig struct {
	// DensityThreshold is the text-density score below which a page is
	// treated as image-only and becomes an OCR candidate.
	DensityThreshold float64 `yaml:"density_threshold"`
	// MinFieldCoverage is the fraction of schema fields that must have at
	// least one valid candidate before OCR fallback is skipped.
	MinFieldCoverage float64 `yaml:"min_field_coverage"`
	// StrategyTimeoutMS bounds each strategy invocation; on timeout the
	// strategy contributes no candidates.
	StrategyTimeoutMS int `yaml:"strategy_timeout_ms"`
	// OCRTimeoutMS bounds the OCR fallback pass, which is the slowest.
	OCRTimeoutMS int `yaml:"ocr_timeout_ms"`

	// MaxAnchorDistance is the maximum edit distance tolerated when matching
	// a token against a field label (OCR noise tolerance).
	MaxAnchorDistance int `yaml:"max_anchor_distance"`
	// ValueWindow is how many tokens after an anchor are considered for a value.
	ValueWindow int `yaml:"value_window"`

	// Per-strategy base confidences and the OCR cap.
	TemplateConfidence   float64 `yaml:"template_confidence"`
	LayoutConfidence     float64 `yaml:"layout_confidence"`
	DirectTextConfidence float64 `yaml:"direct_text_confidence"`
	OCRConfidence        float64 `yaml:"ocr_confidence"`
	OCRConfidenceCap     float64 `yaml:"ocr_confidence_cap"`

	// OCRLanguage is the tesseract language string (e.g. "eng" or "eng+fra").
	OCRLanguage string `yaml:"ocr_language"`
	// MinRasterWidth is the minimum pixel width raster images are upscaled to
	// before OCR; small scans recognize poorly at native resolution.
	MinRasterWidth int `yaml:"min_raster_width"`
}

// StrategyTimeout returns the per-strategy timeout as a duration.
func (p *ParserConfig) StrategyTimeout() time.Duration {
	return time.Duration(p.StrategyTimeoutMS) * time.Millisecond
}

// OCRTimeout returns the OCR pass timeout as a duration.
func (p *ParserConfig) OCRTimeout() time.Duration {
	return time.Duration(p.OCRTimeoutMS) * time.Millisecond
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MaxUploadBytes caps the size of an uploaded sheet document.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// WatchConfig holds drop-directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
