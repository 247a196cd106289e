package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/output"
)

func writeCorrelations(cmd *cobra.Command, path string, records []correlate.Record) error {
	w, closeOut, err := createOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := output.NewCorrelationWriter(w).WriteAll(records); err != nil {
		closeOut()
		return fmt.Errorf("writing correlations: %w", err)
	}
	return closeOut()
}

func writeEnrichment(cmd *cobra.Command, path string, rep *enrich.Report) error {
	w, closeOut, err := createOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := output.NewEnrichmentWriter(w).WriteReport(rep); err != nil {
		closeOut()
		return fmt.Errorf("writing enrichment: %w", err)
	}
	return closeOut()
}
