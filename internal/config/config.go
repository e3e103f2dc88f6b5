// =============================================================================
// GAEB LV Tools - Configuration Module
// =============================================================================
//
// Loads the application configuration from a YAML file and fills in defaults
// so the tool runs without any configuration at all. Database credentials are
// deliberately NOT part of this file; they come from the environment (see
// internal/store) so the YAML can be committed alongside project data.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the global application configuration.
type Config struct {
	// InputDir is scanned when an ingest run is given a directory instead
	// of a single file. Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated exports. Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives successfully processed inputs. Files are moved
	// there only after the whole pipeline succeeded. Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// LogFile is the optional log destination. Empty means stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// CSV configures the tabular CSV extractor.
	CSV CSVSettings `yaml:"csv"`

	// XLSX configures the workbook extractor.
	XLSX XLSXSettings `yaml:"xlsx"`

	// Defaults are applied to documents during building.
	Defaults Defaults `yaml:"defaults"`
}

// CSVSettings mirrors internal/csvrow.Settings.
type CSVSettings struct {
	// Delimiter separates fields. German exports ship semicolons.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of stacked header rows. Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`
}

// XLSXSettings mirrors internal/xlsxrow.Settings.
type XLSXSettings struct {
	// SheetName selects the sheet to read. Empty means the first sheet.
	SheetName string `yaml:"sheet_name"`

	HeaderRows   int `yaml:"header_rows"`
	DataStartRow int `yaml:"data_start_row"`
}

// Defaults are document-level fallbacks applied at build time.
type Defaults struct {
	// Currency is the ISO code stamped on new documents. Default: "EUR"
	Currency string `yaml:"currency"`

	// Unit is the fallback when a row's unit cannot be recognized.
	// Default: "C62" (piece)
	Unit string `yaml:"unit"`

	// VATRate is the fallback tax rate, e.g. "0.19". Empty keeps the
	// document model's own default.
	VATRate string `yaml:"vat_rate"`
}

// Load reads the configuration file and applies defaults. An empty path
// yields the pure default configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./archive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ";"
	}
	if cfg.CSV.HeaderRows == 0 {
		cfg.CSV.HeaderRows = 1
	}
	if cfg.CSV.DataStartRow == 0 {
		cfg.CSV.DataStartRow = cfg.CSV.HeaderRows + 1
	}
	if cfg.XLSX.HeaderRows == 0 {
		cfg.XLSX.HeaderRows = 1
	}
	if cfg.XLSX.DataStartRow == 0 {
		cfg.XLSX.DataStartRow = cfg.XLSX.HeaderRows + 1
	}
	if cfg.Defaults.Currency == "" {
		cfg.Defaults.Currency = "EUR"
	}
	if cfg.Defaults.Unit == "" {
		cfg.Defaults.Unit = "C62"
	}
}

// ensureDirectories creates the working directories if they do not exist.
func ensureDirectories(cfg *Config) error {
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", dir, err)
			}
		}
	}
	return nil
}
