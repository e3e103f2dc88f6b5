// =============================================================================
// GAEB LV Tools - Ingest Command
// =============================================================================
//
// The ingest command runs the pipeline for one input file or for every
// supported file in the configured input directory:
//
//   gaeblv ingest angebot.x84 --store
//   gaeblv ingest mengen.csv --out lv.xlsx
//   gaeblv ingest                          # processes ./input
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/ingest"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/store"
	"github.com/hochbau-digital/gaeb-lv-tools/pkg/utils"
)

var (
	ingestPhase       string
	ingestFormat      string
	ingestOut         string
	ingestStore       bool
	ingestArchive     bool
	ingestExternalRef string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Parse an input file and build the document tree",
	Long: `Parses a GAEB DA XML file (.x83/.x84/.xml), a CSV export or an XLSX
workbook, builds the normalized document tree, and optionally persists it
to the import database or writes an export.

Without a file argument, every supported file in the configured input
directory is processed. A single dash reads the document from stdin; use
--format to name the stdin format.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPhase, "phase", "",
		"Force the document phase (X83 or X84) instead of inferring it")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "",
		"Input format for stdin: gaeb, csv or xlsx")
	ingestCmd.Flags().BoolVar(&ingestArchive, "archive", false,
		"Move successfully processed inputs to the archive directory")
	ingestCmd.Flags().StringVarP(&ingestOut, "out", "o", "",
		"Write an export; format follows the extension (.csv, .xlsx, .xml)")
	ingestCmd.Flags().BoolVar(&ingestStore, "store", false,
		"Persist the document to the import database")
	ingestCmd.Flags().StringVar(&ingestExternalRef, "ref", "",
		"External reference stored with the import (upload or case number)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	phase, err := parsePhase(ingestPhase)
	if err != nil {
		return err
	}

	var db *gorm.DB
	if ingestStore {
		db, err = openStore()
		if err != nil {
			return err
		}
	}

	if len(args) == 1 && args[0] == "-" {
		return ingestStdin(cmd, phase, db)
	}

	files, err := collectInputFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported input files found in %s", cfg.InputDir)
	}

	pipeline := ingest.New(cfg)
	failures := 0
	for _, file := range files {
		opts := ingest.Options{
			Phase:       phase,
			ExternalRef: ingestExternalRef,
			DB:          db,
			OutPath:     ingestOut,
		}
		// A directory run writes each export next to the configured
		// output directory under the input file's name.
		if len(files) > 1 && ingestOut != "" {
			opts.OutPath = deriveOutPath(file, ingestOut)
		}

		result := pipeline.Run(file, opts)
		if !result.Success {
			failures++
			logrus.WithError(result.Error).Errorf("failed to process %s", file)
			continue
		}
		printIngestResult(cmd, result)

		if ingestArchive {
			archived, err := utils.ArchiveFile(file, cfg.ArchiveDir)
			if err != nil {
				return fmt.Errorf("archiving %s: %w", file, err)
			}
			cmd.Printf("  Archived:  %s\n", archived)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(files))
	}
	return nil
}

// ingestStdin stages the stdin bytes into a suffixed temp file so the
// extension-dispatched extractors can read them.
func ingestStdin(cmd *cobra.Command, phase document.Phase, db *gorm.DB) error {
	suffix, err := stdinSuffix(ingestFormat)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	staged, err := utils.StageBytes(data, suffix)
	if err != nil {
		return err
	}
	defer staged.Cleanup()

	result := ingest.New(cfg).Run(staged.Path, ingest.Options{
		Phase:       phase,
		ExternalRef: ingestExternalRef,
		DB:          db,
		OutPath:     ingestOut,
	})
	if !result.Success {
		return result.Error
	}
	printIngestResult(cmd, result)
	return nil
}

func stdinSuffix(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "gaeb", "xml":
		return ".xml", nil
	case "csv":
		return ".csv", nil
	case "xlsx":
		return ".xlsx", nil
	case "":
		return "", fmt.Errorf("--format is required when reading from stdin")
	}
	return "", fmt.Errorf("invalid format %q (expected gaeb, csv or xlsx)", format)
}

// collectInputFiles resolves the run's inputs: the explicit argument, or
// every supported file in the input directory.
func collectInputFiles(args []string) ([]string, error) {
	if len(args) == 1 {
		return []string{args[0]}, nil
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(cfg.InputDir, entry.Name())
		if _, err := ingest.DetectFormat(path); err == nil {
			files = append(files, path)
		}
	}
	return files, nil
}

// deriveOutPath places a per-file export: the input file's base name with
// the shared output path's extension, in the shared output path's directory.
func deriveOutPath(inputFile, sharedOut string) string {
	base := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	return filepath.Join(filepath.Dir(sharedOut), base+filepath.Ext(sharedOut))
}

func parsePhase(raw string) (document.Phase, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "X83":
		return document.PhaseQuantity, nil
	case "X84":
		return document.PhasePriced, nil
	}
	return "", fmt.Errorf("invalid phase %q (expected X83 or X84)", raw)
}

func openStore() (*gorm.DB, error) {
	storeCfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(storeCfg)
}

func printIngestResult(cmd *cobra.Command, result ingest.Result) {
	lv := result.LV
	cmd.Printf("Processed %s\n", filepath.Base(result.FilePath))
	cmd.Printf("  Phase:     %s\n", lv.Phase)
	cmd.Printf("  Project:   %s\n", lv.Project)
	cmd.Printf("  Titles:    %d\n", result.Stats.Titles)
	cmd.Printf("  Positions: %d\n", result.Stats.Positions)
	if result.Stats.Saved != nil {
		cmd.Printf("  Stored:    lv_id=%d\n", result.Stats.Saved.LVID)
	}
	if result.OutputFile != "" {
		cmd.Printf("  Output:    %s\n", result.OutputFile)
	}
}
