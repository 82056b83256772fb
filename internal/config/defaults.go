package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Parser.DensityThreshold == 0 {
		cfg.Parser.DensityThreshold = 1.0
	}
	if cfg.Parser.MinFieldCoverage == 0 {
		cfg.Parser.MinFieldCoverage = 0.5
	}
	if cfg.Parser.StrategyTimeoutMS == 0 {
		cfg.Parser.StrategyTimeoutMS = 5000
	}
	if cfg.Parser.OCRTimeoutMS == 0 {
		cfg.Parser.OCRTimeoutMS = 30000
	}
	if cfg.Parser.MaxAnchorDistance == 0 {
		cfg.Parser.MaxAnchorDistance = 1
	}
	if cfg.Parser.ValueWindow == 0 {
		cfg.Parser.ValueWindow = 6
	}
	if cfg.Parser.TemplateConfidence == 0 {
		cfg.Parser.TemplateConfidence = 0.95
	}
	if cfg.Parser.LayoutConfidence == 0 {
		cfg.Parser.LayoutConfidence = 0.8
	}
	if cfg.Parser.DirectTextConfidence == 0 {
		cfg.Parser.DirectTextConfidence = 0.7
	}
	if cfg.Parser.OCRConfidence == 0 {
		cfg.Parser.OCRConfidence = 0.5
	}
	if cfg.Parser.OCRConfidenceCap == 0 {
		cfg.Parser.OCRConfidenceCap = 0.8
	}
	if cfg.Parser.OCRLanguage == "" {
		cfg.Parser.OCRLanguage = "eng"
	}
	if cfg.Parser.MinRasterWidth == 0 {
		cfg.Parser.MinRasterWidth = 1200
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt", ".docx", ".xlsx", ".png", ".jpg", ".jpeg"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Default returns a Config populated with defaults, for callers without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
