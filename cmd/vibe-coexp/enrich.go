package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/output"
	"github.com/inodb/vibe-coexp/internal/pipeline"
)

func newEnrichCmd(verbose *bool) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "enrich <correlations.tsv>",
		Short: "Test correlated host genes for GO term enrichment",
		Long: `Read a correlation table written by 'correlate', select the host genes
of significant pairs as the study set and test every GO term annotating
the background universe with a one-sided hypergeometric test.

The universe is every gene in the annotation tables. Terms are not
propagated to their ancestors.`,
		Example: `  vibe-coexp enrich pairs.tsv -a interpro.tsv -a eggnog.tsv -g go-basic.obo
  vibe-coexp enrich --universe annotated --study-direction absolute pairs.tsv -a go.tsv -g go.obo`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, enrichmentKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Logger = logger

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening correlation table: %w", err)
			}
			records, err := output.ReadCorrelations(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			logger.Info("loaded correlation table", zap.String("path", args[0]), zap.Int("records", len(records)))

			annotations, _ := cmd.Flags().GetStringSlice("annotation")
			oboFlag, _ := cmd.Flags().GetString("ontology")
			oboPath, err := resolveOntology(oboFlag)
			if err != nil {
				return err
			}

			g, err := pipeline.LoadOntology(oboPath, viper.GetString("ontology.cache_dir"), logger)
			if err != nil {
				return err
			}
			ann, universe, _, err := pipeline.LoadAnnotation(cfg, annotations, g)
			if err != nil {
				return err
			}
			en, err := pipeline.Enrich(context.Background(), cfg, records, universe, ann, g)
			if err != nil {
				return err
			}
			rep := en.Report
			if rep == nil {
				logger.Warn("no study genes; writing an empty enrichment table")
				rep = &enrich.Report{}
			}

			if err := writeEnrichment(cmd, outputFile, rep); err != nil {
				return err
			}

			summary := &output.Summary{Dropped: len(en.Dropped), Report: en.Report}
			summary.WriteSummary(os.Stderr)
			return nil
		},
	}

	addEnrichmentFlags(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
