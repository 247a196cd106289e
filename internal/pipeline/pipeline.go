// Package pipeline wires the expression, correlation, annotation and
// enrichment stages into one run.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-coexp/internal/annotation"
	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/duckdb"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/expr"
	"github.com/inodb/vibe-coexp/internal/ontology"
)

// Config holds the analysis settings of a run.
type Config struct {
	ViralPrefix string
	Normalize   bool // counts-per-million before correlating
	TotalLoad   bool // also correlate host genes with summed viral expression
	PoolMode    correlate.PoolMode
	Workers     int

	// TableFilter selects the reported correlation table; StudyFilter
	// selects the records whose host genes form the study set.
	TableFilter correlate.Filter
	StudyFilter correlate.Filter

	Alpha    float64
	Universe enrich.UniversePolicy

	GeneColumn string
	TermColumn string

	Version string
	Logger  *zap.Logger
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ViralPrefix: "CcBV_",
		PoolMode:    correlate.PoolCombined,
		TableFilter: correlate.DefaultFilter(),
		StudyFilter: correlate.Filter{MinR: 0.7, MaxFDR: 0.05, Direction: correlate.Positive},
		Alpha:       0.05,
		Universe:    enrich.UniverseAll,
		GeneColumn:  annotation.DefaultGeneColumn,
		TermColumn:  annotation.DefaultTermColumn,
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Inputs names the files of a run.
type Inputs struct {
	Expression  string   // gene-by-sample matrix, "-" for stdin
	Annotations []string // one or more annotation tables, unioned
	Ontology    string   // OBO file
	CacheDir    string   // gob cache of the parsed ontology, "" disables
	Store       *duckdb.Store
}

// Correlation is the corrected correlation stage output.
type Correlation struct {
	Records  []correlate.Record // every tested pair, corrected, sorted
	Pairs    int
	Skipped  int
	Constant int
	Pools    map[string]int
}

// Enrichment is the enrichment stage output.
type Enrichment struct {
	Study   []string // study genes inside the universe
	Dropped []string // study genes outside the universe
	Build   annotation.BuildStats
	Report  *enrich.Report // nil when the study set is empty
}

// Outcome is everything a run produced.
type Outcome struct {
	RunID       string
	Matrix      *expr.Matrix
	Correlation *Correlation
	Table       []correlate.Record // records passing TableFilter
	Enrichment  *Enrichment
}

// Run executes matrix loading, correlation, correction, filtering and
// enrichment. Results are persisted when in.Store is set.
func Run(ctx context.Context, cfg Config, in Inputs) (*Outcome, error) {
	log := cfg.logger()

	m, err := LoadMatrix(cfg, in.Expression)
	if err != nil {
		return nil, err
	}
	corr, err := Correlate(ctx, cfg, m)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Matrix: m, Correlation: corr, Table: cfg.TableFilter.Apply(corr.Records)}
	log.Info("correlation table filtered",
		zap.Int("records", len(corr.Records)),
		zap.Int("kept", len(out.Table)))

	g, err := LoadOntology(in.Ontology, in.CacheDir, log)
	if err != nil {
		return nil, err
	}
	ann, universe, build, err := LoadAnnotation(cfg, in.Annotations, g)
	if err != nil {
		return nil, err
	}
	out.Enrichment, err = Enrich(ctx, cfg, corr.Records, universe, ann, g)
	if err != nil {
		return nil, err
	}
	out.Enrichment.Build = build

	if in.Store != nil {
		if out.RunID, err = Persist(in.Store, cfg, in, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LoadMatrix loads the expression matrix, classifying genes by the viral
// prefix, and optionally normalizes it.
func LoadMatrix(cfg Config, path string) (*expr.Matrix, error) {
	m, err := expr.Load(path, expr.PrefixClassifier(cfg.ViralPrefix))
	if err != nil {
		return nil, err
	}
	cfg.logger().Info("loaded expression matrix",
		zap.String("path", path),
		zap.Int("genes", m.GeneCount()),
		zap.Int("viral_genes", len(m.GenesOf(expr.Viral))),
		zap.Int("samples", m.SampleCount()))
	if cfg.Normalize {
		m = expr.CPM(m)
	}
	return m, nil
}

// Correlate runs the correlation engine on m and corrects the p-values.
func Correlate(ctx context.Context, cfg Config, m *expr.Matrix) (*Correlation, error) {
	engine := correlate.NewEngine()
	engine.SetWorkers(cfg.Workers)
	engine.SetLogger(cfg.logger())

	res, err := engine.Run(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	out := &Correlation{
		Records:  res.Records,
		Pairs:    res.Pairs,
		Skipped:  res.Skipped,
		Constant: res.Constant,
	}

	if cfg.TotalLoad {
		load, err := engine.RunTotalLoad(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("correlate total viral load: %w", err)
		}
		out.Records = append(out.Records, load.Records...)
		out.Pairs += load.Pairs
		out.Skipped += load.Skipped
		out.Constant += load.Constant
	}

	if len(out.Records) > 0 {
		if out.Pools, err = correlate.Correct(out.Records, cfg.PoolMode, cfg.Alpha); err != nil {
			return nil, err
		}
	} else {
		cfg.logger().Warn("no gene pair had enough jointly nonzero samples")
	}
	correlate.SortRecords(out.Records)
	return out, nil
}

// LoadOntology parses the OBO file, going through the gob cache when
// cacheDir is set.
func LoadOntology(path, cacheDir string, log *zap.Logger) (*ontology.Graph, error) {
	if cacheDir == "" {
		g, err := ontology.Load(path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded ontology", zap.String("path", path), zap.Int("terms", g.Len()))
		return g, nil
	}

	g, cached, err := duckdb.NewOntologyCache(cacheDir).LoadOrParse(path)
	if err != nil {
		return nil, err
	}
	log.Info("loaded ontology",
		zap.String("path", path),
		zap.Int("terms", g.Len()),
		zap.Bool("cached", cached))
	return g, nil
}

// LoadAnnotation reads every annotation table, unions them and validates
// the terms against g.
func LoadAnnotation(cfg Config, paths []string, g *ontology.Graph) (annotation.GeneAnnotation, annotation.Universe, annotation.BuildStats, error) {
	if len(paths) == 0 {
		return nil, annotation.Universe{}, annotation.BuildStats{}, fmt.Errorf("no annotation tables given")
	}
	b := annotation.NewBuilder()
	b.SetLogger(cfg.logger())
	for _, p := range paths {
		rows, err := annotation.LoadRows(p, cfg.GeneColumn, cfg.TermColumn)
		if err != nil {
			return nil, annotation.Universe{}, annotation.BuildStats{}, err
		}
		b.Add(p, rows...)
	}
	ann, st := b.Build(g)
	return ann, b.Universe(), st, nil
}

// Enrich derives the study set from records and tests it. Total viral
// load records do not contribute study genes. An empty study set yields
// an Enrichment with a nil report.
func Enrich(ctx context.Context, cfg Config, records []correlate.Record,
	universe annotation.Universe, ann annotation.GeneAnnotation, g *ontology.Graph) (*Enrichment, error) {
	log := cfg.logger()

	var pairs []correlate.Record
	for _, r := range cfg.StudyFilter.Apply(records) {
		if r.GeneA != correlate.TotalViralLoad {
			pairs = append(pairs, r)
		}
	}
	study := correlate.StudySet(pairs, expr.Host)

	out := &Enrichment{}
	out.Study, out.Dropped = universe.Intersect(study)
	if len(out.Dropped) > 0 {
		log.Info("study genes outside the annotation universe dropped",
			zap.Int("dropped", len(out.Dropped)),
			zap.Strings("genes", head(out.Dropped, 10)))
	}
	if len(out.Study) == 0 {
		log.Warn("study set is empty; skipping enrichment",
			zap.Int("candidates", len(study)))
		return out, nil
	}

	tester := enrich.NewTester(cfg.Alpha)
	tester.SetWorkers(cfg.Workers)
	tester.SetLogger(log)
	tester.SetUniversePolicy(cfg.Universe)

	report, err := tester.Run(ctx, universe, out.Study, ann, g)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	out.Report = report
	return out, nil
}

// Persist stores the run parameters, input fingerprints and results.
func Persist(store *duckdb.Store, cfg Config, in Inputs, out *Outcome) (string, error) {
	runID, err := store.NewRun(duckdb.RunParams{
		Version:        cfg.Version,
		PoolMode:       cfg.PoolMode.String(),
		MinR:           cfg.TableFilter.MinR,
		MaxFDR:         cfg.TableFilter.MaxFDR,
		Direction:      cfg.TableFilter.Direction.String(),
		Alpha:          cfg.Alpha,
		UniversePolicy: cfg.Universe.String(),
	})
	if err != nil {
		return "", err
	}

	inputs := []struct{ role, path string }{{"expression", in.Expression}, {"ontology", in.Ontology}}
	for _, p := range in.Annotations {
		inputs = append(inputs, struct{ role, path string }{"annotation", p})
	}
	for _, input := range inputs {
		if input.path == "" || input.path == "-" {
			continue
		}
		fp, err := duckdb.StatFile(input.path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", input.role, err)
		}
		if err := store.RecordInput(runID, input.role, fp); err != nil {
			return "", err
		}
	}

	if out.Correlation != nil {
		if err := store.WriteCorrelations(runID, out.Correlation.Records); err != nil {
			return "", fmt.Errorf("store correlations: %w", err)
		}
	}
	if out.Enrichment != nil && out.Enrichment.Report != nil {
		if err := store.WriteEnrichment(runID, out.Enrichment.Report.Results); err != nil {
			return "", fmt.Errorf("store enrichment: %w", err)
		}
	}

	cfg.logger().Info("stored run", zap.String("run_id", runID), zap.String("store", store.Path()))
	return runID, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
