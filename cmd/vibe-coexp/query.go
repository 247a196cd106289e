package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-coexp/internal/duckdb"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/output"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored runs",
		Long:  "Query runs saved with 'run --store'. The database defaults to store.path from the config.",
		Example: `  vibe-coexp query runs --store results.duckdb
  vibe-coexp query gene LOC100 --store results.duckdb
  vibe-coexp query terms <run-id> --limit 20`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(configFlag(cmd)); err != nil {
				return err
			}
			return bindFlags(cmd, map[string]string{"store.path": "store"})
		},
	}
	cmd.PersistentFlags().String("store", "", "DuckDB database written by 'run --store'")

	cmd.AddCommand(newQueryRunsCmd())
	cmd.AddCommand(newQueryGeneCmd())
	cmd.AddCommand(newQueryTermsCmd())

	return cmd
}

// configFlag returns the value of the root --config flag.
func configFlag(cmd *cobra.Command) string {
	f := cmd.Root().PersistentFlags().Lookup("config")
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func openStore() (*duckdb.Store, error) {
	path := viper.GetString("store.path")
	if path == "" {
		return nil, usageError{fmt.Errorf("no store given (use --store or set store.path)")}
	}
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func newQueryRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "run_id\tcreated_at\tversion\tpool\tmin_r\tmax_fdr\tdirection\talpha\tuniverse")
			for _, r := range runs {
				p := r.Params
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%s\t%g\t%s\n",
					r.ID, r.CreatedAt.UTC().Format(time.RFC3339), p.Version, p.PoolMode,
					p.MinR, p.MaxFDR, p.Direction, p.Alpha, p.UniversePolicy)
			}
			return nil
		},
	}
}

func newQueryGeneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gene <gene-id>",
		Short: "Show stored correlations involving a gene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			found, err := store.CorrelationsForGene(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "run_id\tgene_1\tgene_2\tclass\tpearson_r\tp_value\tfdr\tn_samples\tpool")
			for _, c := range found {
				fdr, pool := output.NA, output.NA
				if c.Corrected() {
					fdr, pool = fmt.Sprintf("%g", c.FDR), c.Pool
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%s\t%d\t%s\n",
					c.RunID, c.GeneA, c.GeneB, c.ClassB, c.R, c.P, fdr, c.N, pool)
			}
			return nil
		},
	}
}

func newQueryTermsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "terms <run-id>",
		Short: "Show the top enrichment results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.TopTerms(args[0], limit)
			if err != nil {
				return err
			}
			return output.NewEnrichmentWriter(cmd.OutOrStdout()).WriteReport(&enrich.Report{Results: results})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of terms (0 = all)")

	return cmd
}
