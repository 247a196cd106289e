// Package main provides the vibe-coexp command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-coexp/internal/stats"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".vibe-coexp.yaml"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			return ExitUsage
		}
		if errors.Is(err, stats.ErrInvalidInput) {
			fmt.Fprintf(os.Stderr, "Hint: check that the study genes come from the annotation tables\n")
		}
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Hint: Check that the file path is correct\n")
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks errors caused by bad flags or arguments.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func newRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool

	root := &cobra.Command{
		Use:   "vibe-coexp",
		Short: "Virus-host co-expression and GO enrichment",
		Long: `vibe-coexp correlates viral gene expression with host gene expression
across RNA-seq samples and tests the correlated host genes for Gene
Ontology term enrichment.`,
		Example: `  # Full analysis
  vibe-coexp run counts.tsv -a interpro.tsv -a eggnog.tsv -g go-basic.obo

  # Correlation table only
  vibe-coexp correlate counts.tsv -o correlations.tsv

  # Enrichment of an existing correlation table
  vibe-coexp enrich correlations.tsv -a annotation.tsv -g go-basic.obo`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newCorrelateCmd(&verbose))
	root.AddCommand(newEnrichCmd(&verbose))
	root.AddCommand(newRunCmd(&verbose))
	root.AddCommand(newQueryCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-coexp version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// setDefaults registers the default value of every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("correlation.viral_prefix", "CcBV_")
	v.SetDefault("correlation.pool", "combined")
	v.SetDefault("correlation.workers", 0)
	v.SetDefault("correlation.normalize", false)
	v.SetDefault("correlation.total_load", false)
	v.SetDefault("filter.min_r", 0.7)
	v.SetDefault("filter.max_fdr", 0.05)
	v.SetDefault("filter.direction", "absolute")
	v.SetDefault("enrichment.alpha", 0.05)
	v.SetDefault("enrichment.direction", "positive")
	v.SetDefault("enrichment.universe", "all")
	v.SetDefault("annotation.gene_column", "locus")
	v.SetDefault("annotation.term_column", "GO_terms")
	v.SetDefault("ontology.cache_dir", "")
	v.SetDefault("store.path", "")
}

// initConfig loads the config file and environment. A missing default
// config file is not an error.
func initConfig(cfgFile string) error {
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("VIBE_COEXP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, configName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// bindFlags binds config keys to the named flags of cmd. Binding happens
// when the command runs so that commands sharing a key do not override
// each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// createOutput opens path for writing; "" and "-" mean the command's
// standard output.
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
