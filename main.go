// =============================================================================
// GAEB LV Tools - Main Entry Point
// =============================================================================
//
// CLI for working with GAEB DA XML tender documents and their flat CSV/XLSX
// relatives. Command execution is delegated to the cmd package.
//
// USAGE:
//   gaeblv ingest     - Parse an input file, build and store the document
//   gaeblv reconcile  - Merge a priced issue into the quantity document
//   gaeblv version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core business logic (not for external import)
//   - pkg/       : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/hochbau-digital/gaeb-lv-tools/cmd"
)

func main() {
	cmd.Execute()
}
