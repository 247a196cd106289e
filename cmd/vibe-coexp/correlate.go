package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-coexp/internal/output"
	"github.com/inodb/vibe-coexp/internal/pipeline"
)

func newCorrelateCmd(verbose *bool) *cobra.Command {
	var (
		outputFile string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "correlate <expression-matrix>",
		Short: "Correlate viral genes with host and viral genes",
		Long: `Compute masked Pearson correlations between every viral gene and every
host and viral gene of a gene-by-sample expression matrix, correct the
p-values with Benjamini-Hochberg and write the significant pairs.

Only samples where both genes are nonzero are used; pairs with fewer than
three such samples are skipped.`,
		Example: `  vibe-coexp correlate counts.tsv
  vibe-coexp correlate --pool separate --min-r 0.8 -o pairs.tsv counts.tsv
  vibe-coexp correlate --all counts.tsv.gz > all_pairs.tsv`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, correlationKeys)
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

			m, err := pipeline.LoadMatrix(cfg, args[0])
			if err != nil {
				return err
			}
			corr, err := pipeline.Correlate(context.Background(), cfg, m)
			if err != nil {
				return err
			}

			records := corr.Records
			if !all {
				records = cfg.TableFilter.Apply(records)
			}

			if err := writeCorrelations(cmd, outputFile, records); err != nil {
				return err
			}

			summary := &output.Summary{
				Pairs:    corr.Pairs,
				Skipped:  corr.Skipped,
				Constant: corr.Constant,
				Records:  corr.Records,
				Kept:     len(cfg.TableFilter.Apply(corr.Records)),
			}
			summary.WriteSummary(os.Stderr)
			return nil
		},
	}

	addCorrelationFlags(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "Write every tested pair, not only those passing the filter")

	return cmd
}
