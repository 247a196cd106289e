package main

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-coexp/internal/duckdb"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/output"
	"github.com/inodb/vibe-coexp/internal/pipeline"
)

func newRunCmd(verbose *bool) *cobra.Command {
	var (
		correlationsFile string
		enrichmentFile   string
	)

	cmd := &cobra.Command{
		Use:   "run <expression-matrix>",
		Short: "Correlate and test for GO enrichment in one pass",
		Long: `Run the full analysis: correlate viral genes with host genes, correct and
filter the pairs, build the study set from positively correlated host
genes and test it for GO term enrichment.

With --store (or store.path in the config) the run parameters, input
fingerprints and all results are saved to a DuckDB database.`,
		Example: `  vibe-coexp run counts.tsv -a interpro.tsv -a eggnog.tsv -g go-basic.obo \
      -c pairs.tsv -e go_enrichment.tsv
  vibe-coexp run --store results.duckdb --pool separate counts.tsv -a go.tsv -g go.obo`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			keys := maps.Clone(correlationKeys)
			maps.Copy(keys, enrichmentKeys)
			keys["store.path"] = "store"
			return bindFlags(cmd, keys)
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

			annotations, _ := cmd.Flags().GetStringSlice("annotation")
			oboFlag, _ := cmd.Flags().GetString("ontology")
			oboPath, err := resolveOntology(oboFlag)
			if err != nil {
				return err
			}
			in := pipeline.Inputs{
				Expression:  args[0],
				Annotations: annotations,
				Ontology:    oboPath,
				CacheDir:    viper.GetString("ontology.cache_dir"),
			}

			if storePath := viper.GetString("store.path"); storePath != "" {
				store, err := duckdb.Open(storePath)
				if err != nil {
					return fmt.Errorf("opening store: %w", err)
				}
				defer store.Close()
				in.Store = store
			}

			out, err := pipeline.Run(context.Background(), cfg, in)
			if err != nil {
				return err
			}

			if err := writeCorrelations(cmd, correlationsFile, out.Table); err != nil {
				return err
			}
			rep := out.Enrichment.Report
			if rep == nil {
				rep = &enrich.Report{}
			}
			if err := writeEnrichment(cmd, enrichmentFile, rep); err != nil {
				return err
			}
			if out.RunID != "" {
				logger.Info("results stored", zap.String("run_id", out.RunID))
			}

			summary := &output.Summary{
				Pairs:    out.Correlation.Pairs,
				Skipped:  out.Correlation.Skipped,
				Constant: out.Correlation.Constant,
				Records:  out.Correlation.Records,
				Kept:     len(out.Table),
				Dropped:  len(out.Enrichment.Dropped),
				Report:   out.Enrichment.Report,
			}
			summary.WriteSummary(os.Stderr)
			return nil
		},
	}

	addCorrelationFlags(cmd)
	addEnrichmentFlags(cmd)
	cmd.Flags().StringVarP(&correlationsFile, "correlations", "c", "correlations.tsv", "Correlation table output")
	cmd.Flags().StringVarP(&enrichmentFile, "enrichment", "e", "go_enrichment.tsv", "Enrichment table output")
	cmd.Flags().String("store", "", "DuckDB database to store the run in")

	return cmd
}
