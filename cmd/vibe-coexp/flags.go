package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/pipeline"
)

// Config keys set by the correlation flags.
var correlationKeys = map[string]string{
	"correlation.viral_prefix": "viral-prefix",
	"correlation.pool":         "pool",
	"correlation.workers":      "workers",
	"correlation.normalize":    "normalize",
	"correlation.total_load":   "total-load",
	"filter.min_r":             "min-r",
	"filter.max_fdr":           "max-fdr",
	"filter.direction":         "direction",
}

// Config keys set by the enrichment flags.
var enrichmentKeys = map[string]string{
	"filter.min_r":           "min-r",
	"filter.max_fdr":         "max-fdr",
	"correlation.workers":    "workers",
	"enrichment.alpha":       "alpha",
	"enrichment.direction":   "study-direction",
	"enrichment.universe":    "universe",
	"annotation.gene_column": "gene-column",
	"annotation.term_column": "term-column",
	"ontology.cache_dir":     "cache-dir",
}

func addCorrelationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("viral-prefix", "CcBV_", "Gene id prefix marking viral genes")
	f.String("pool", "combined", "Correction pooling: combined or separate")
	f.Int("workers", 0, "Parallel workers (0 = number of CPUs)")
	f.Bool("normalize", false, "Convert counts to counts-per-million before correlating")
	f.Bool("total-load", false, "Also correlate host genes with total viral expression")
	f.Float64("min-r", 0.7, "Minimum |r| (or r, by direction) to keep a pair")
	f.Float64("max-fdr", 0.05, "Keep pairs with FDR below this value")
	f.String("direction", "absolute", "Correlation table direction: absolute, positive or negative")
}

func addEnrichmentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Lookup("min-r") == nil {
		f.Float64("min-r", 0.7, "Minimum r for a host gene to enter the study set")
		f.Float64("max-fdr", 0.05, "Maximum FDR for a host gene to enter the study set")
		f.Int("workers", 0, "Parallel workers (0 = number of CPUs)")
	}
	f.StringSliceP("annotation", "a", nil, "Annotation table (repeatable; tables are unioned)")
	f.StringP("ontology", "g", "", "GO ontology OBO file (default: ~/.vibe-coexp/go-basic.obo)")
	f.Float64("alpha", 0.05, "Significance level for Benjamini-Hochberg")
	f.String("study-direction", "positive", "Study set direction: positive, negative or absolute")
	f.String("universe", "all", "Background universe: all or annotated")
	f.String("gene-column", "locus", "Gene column of the annotation tables")
	f.String("term-column", "GO_terms", "GO term column of the annotation tables")
	f.String("cache-dir", "", "Directory for the parsed ontology cache (empty disables)")
	cmd.MarkFlagRequired("annotation")
}

// loadConfig builds the analysis configuration from viper.
func loadConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Version = version
	cfg.ViralPrefix = viper.GetString("correlation.viral_prefix")
	cfg.Workers = viper.GetInt("correlation.workers")
	cfg.Normalize = viper.GetBool("correlation.normalize")
	cfg.TotalLoad = viper.GetBool("correlation.total_load")
	cfg.Alpha = viper.GetFloat64("enrichment.alpha")
	cfg.GeneColumn = viper.GetString("annotation.gene_column")
	cfg.TermColumn = viper.GetString("annotation.term_column")

	var err error
	if cfg.PoolMode, err = correlate.ParsePoolMode(viper.GetString("correlation.pool")); err != nil {
		return cfg, usageError{err}
	}
	tableDir, err := correlate.ParseDirection(viper.GetString("filter.direction"))
	if err != nil {
		return cfg, usageError{err}
	}
	studyDir, err := correlate.ParseDirection(viper.GetString("enrichment.direction"))
	if err != nil {
		return cfg, usageError{err}
	}
	if cfg.Universe, err = enrich.ParseUniversePolicy(viper.GetString("enrichment.universe")); err != nil {
		return cfg, usageError{err}
	}

	minR, maxFDR := viper.GetFloat64("filter.min_r"), viper.GetFloat64("filter.max_fdr")
	if minR < 0 || minR > 1 {
		return cfg, usageError{fmt.Errorf("min-r %g outside [0, 1]", minR)}
	}
	if maxFDR <= 0 || maxFDR > 1 {
		return cfg, usageError{fmt.Errorf("max-fdr %g outside (0, 1]", maxFDR)}
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return cfg, usageError{fmt.Errorf("alpha %g outside (0, 1)", cfg.Alpha)}
	}
	cfg.TableFilter = correlate.Filter{MinR: minR, MaxFDR: maxFDR, Direction: tableDir}
	cfg.StudyFilter = correlate.Filter{MinR: minR, MaxFDR: maxFDR, Direction: studyDir}

	return cfg, nil
}
