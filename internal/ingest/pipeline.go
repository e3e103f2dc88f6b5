// =============================================================================
// GAEB LV Tools - Ingest Pipeline
// =============================================================================
//
// This module drives the processing of a single input file end to end:
//
//   1. Detect the source format from the file extension
//   2. Extract the flat row sequence with the matching extractor
//   3. Build the document tree from the rows
//   4. Optionally persist the document to the import store
//   5. Optionally write an export (CSV, XLSX or GAEB XML)
//
// A pipeline run never panics on malformed input; everything irregular in
// the data degrades inside the extractors and the builder. Only structural
// failures (unreadable file, unknown format, store errors) surface as the
// Result error.
//
// =============================================================================

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/config"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/csvrow"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/export"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/gaebxml"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/store"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/unit"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/xlsxrow"
)

// Format identifies the source file format.
type Format string

const (
	FormatGAEB Format = "gaeb"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to its format. GAEB exchange files come as
// .x83/.x84 (phase-bearing) or plain .xml.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".x83", ".x84", ".xml":
		return FormatGAEB, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported input format: %s", filepath.Ext(path))
}

// Options controls a pipeline run.
type Options struct {
	// Phase forces the document phase. Empty means: take it from the file
	// extension (.x83/.x84), otherwise infer it from the presence of
	// prices in the rows.
	Phase document.Phase

	// ExternalRef tags the stored import with an upload or case reference.
	ExternalRef string

	// DB, when set, persists the built document to the import store.
	DB *gorm.DB

	// OutPath, when set, writes an export. The format follows the
	// extension: .csv, .xlsx, or .xml/.x83/.x84 for GAEB XML.
	OutPath string
}

// Stats summarizes what a run produced.
type Stats struct {
	Rows           int
	Titles         int
	Positions      int
	ProcessingTime time.Duration

	// Saved is set when the document was persisted.
	Saved *store.ImportResult
}

// Result is the outcome of one pipeline run.
type Result struct {
	FilePath   string
	OutputFile string
	LV         *document.LV
	Success    bool
	Error      error
	Stats      Stats
}

// Pipeline processes input files according to the loaded configuration.
type Pipeline struct {
	cfg *config.Config
}

// New creates a pipeline.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run processes one input file.
func (p *Pipeline) Run(path string, opts Options) Result {
	start := time.Now()
	result := Result{FilePath: path}

	log := logrus.WithField("file", filepath.Base(path))
	log.Info("processing input file")

	format, err := DetectFormat(path)
	if err != nil {
		result.Error = err
		return result
	}

	project, rows, err := p.extract(path, format)
	if err != nil {
		result.Error = fmt.Errorf("extracting %s: %w", path, err)
		return result
	}
	result.Stats.Rows = len(rows)

	phase := opts.Phase
	if phase == "" {
		phase = inferPhase(path, rows)
	}

	lv := document.Build(rows, p.buildOptions(phase, project, path))
	result.LV = lv
	// The synthetic root does not count as a section.
	result.Stats.Titles = lv.TitleCount() - 1
	result.Stats.Positions = lv.PositionCount()

	log.WithFields(logrus.Fields{
		"phase":     lv.Phase,
		"project":   lv.Project,
		"titles":    result.Stats.Titles,
		"positions": result.Stats.Positions,
	}).Info("document built")

	if opts.DB != nil {
		saved, err := store.SaveLV(opts.DB, lv, opts.ExternalRef)
		if err != nil {
			result.Error = fmt.Errorf("persisting document: %w", err)
			return result
		}
		result.Stats.Saved = saved
		log.WithField("lv_id", saved.LVID).Info("document persisted")
	}

	if opts.OutPath != "" {
		if err := WriteExport(opts.OutPath, lv); err != nil {
			result.Error = err
			return result
		}
		result.OutputFile = opts.OutPath
		log.WithField("output", opts.OutPath).Info("export written")
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	return result
}

// extract dispatches to the format-specific extractor.
func (p *Pipeline) extract(path string, format Format) (project string, rows []document.Row, err error) {
	switch format {
	case FormatGAEB:
		ex, err := gaebxml.ExtractFile(path)
		if err != nil {
			return "", nil, err
		}
		return ex.Project, ex.Rows, nil
	case FormatCSV:
		ex, err := csvrow.Extract(path, csvrow.Settings{
			Delimiter:    p.cfg.CSV.Delimiter,
			HeaderRows:   p.cfg.CSV.HeaderRows,
			DataStartRow: p.cfg.CSV.DataStartRow,
		})
		if err != nil {
			return "", nil, err
		}
		return ex.Project, ex.Rows, nil
	case FormatXLSX:
		ex, err := xlsxrow.Extract(path, xlsxrow.Settings{
			SheetName:    p.cfg.XLSX.SheetName,
			HeaderRows:   p.cfg.XLSX.HeaderRows,
			DataStartRow: p.cfg.XLSX.DataStartRow,
		})
		if err != nil {
			return "", nil, err
		}
		return ex.Project, ex.Rows, nil
	}
	return "", nil, fmt.Errorf("unsupported input format: %s", format)
}

// buildOptions maps the configured defaults onto the document builder.
func (p *Pipeline) buildOptions(phase document.Phase, project, path string) document.BuildOptions {
	opts := document.BuildOptions{
		Phase:       phase,
		Project:     project,
		Currency:    p.cfg.Defaults.Currency,
		DefaultUnit: unit.Unit(p.cfg.Defaults.Unit),
		Meta:        map[string]string{"source": filepath.Base(path)},
	}
	if p.cfg.Defaults.VATRate != "" {
		if rate, err := decimal.NewFromString(p.cfg.Defaults.VATRate); err == nil {
			opts.DefaultVATRate = decimal.NullDecimal{Decimal: rate, Valid: true}
		}
	}
	return opts
}

// inferPhase decides the document phase when the caller did not: the GAEB
// extension is authoritative, otherwise any priced row marks the priced
// phase.
func inferPhase(path string, rows []document.Row) document.Phase {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".x83":
		return document.PhaseQuantity
	case ".x84":
		return document.PhasePriced
	}
	for _, row := range rows {
		if row.UnitPriceNet.Valid || row.TotalPriceNet.Valid {
			return document.PhasePriced
		}
	}
	return document.PhaseQuantity
}

// WriteExport serializes the document to the path, choosing the writer by
// extension.
func WriteExport(path string, lv *document.LV) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.WriteCSV(f, lv)
	case ".xlsx":
		err = export.WriteXLSX(f, lv)
	case ".xml", ".x83", ".x84":
		err = export.WriteXML(f, lv)
	default:
		err = fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
