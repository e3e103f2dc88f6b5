package ingest

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/reconcile"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/store"
)

// ReconcileResult is the outcome of a price reconciliation run. The merged
// document is the quantity document with prices carried over.
type ReconcileResult struct {
	LV         *document.LV
	Match      reconcile.Stats
	OutputFile string
	Saved      *store.ImportResult
	Duration   time.Duration
}

// Reconcile loads a quantity-phase and a priced file, merges the prices into
// the quantity document and optionally persists or exports the result.
func (p *Pipeline) Reconcile(quantityPath, pricedPath string, opts Options) (*ReconcileResult, error) {
	start := time.Now()

	quantity, err := p.load(quantityPath, document.PhaseQuantity)
	if err != nil {
		return nil, err
	}
	priced, err := p.load(pricedPath, document.PhasePriced)
	if err != nil {
		return nil, err
	}

	index := reconcile.BuildIndex(priced)
	stats := reconcile.Merge(quantity, index)

	logrus.WithFields(logrus.Fields{
		"positions":     stats.Positions,
		"by_identifier": stats.ByIdentifier,
		"by_order_key":  stats.ByOrderKey,
		"by_segment":    stats.BySegment,
		"unmatched":     stats.Unmatched,
	}).Info("prices reconciled")

	result := &ReconcileResult{LV: quantity, Match: stats}

	if opts.DB != nil {
		saved, err := store.SaveLV(opts.DB, quantity, opts.ExternalRef)
		if err != nil {
			return nil, fmt.Errorf("persisting reconciled document: %w", err)
		}
		result.Saved = saved
	}
	if opts.OutPath != "" {
		if err := WriteExport(opts.OutPath, quantity); err != nil {
			return nil, err
		}
		result.OutputFile = opts.OutPath
	}

	result.Duration = time.Since(start)
	return result, nil
}

// load extracts and builds one side of a reconciliation.
func (p *Pipeline) load(path string, phase document.Phase) (*document.LV, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	project, rows, err := p.extract(path, format)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}
	return document.Build(rows, p.buildOptions(phase, project, path)), nil
}
