package enrich

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-coexp/internal/annotation"
	"github.com/inodb/vibe-coexp/internal/ontology"
	"github.com/inodb/vibe-coexp/internal/stats"
)

// Tester runs term-by-term enrichment tests.
type Tester struct {
	alpha   float64
	workers int
	policy  UniversePolicy
	logger  *zap.Logger
}

// NewTester creates a tester that marks terms significant at alpha.
func NewTester(alpha float64) *Tester {
	return &Tester{alpha: alpha, logger: zap.NewNop()}
}

// SetWorkers sets the number of concurrent term tests; 0 means
// runtime.NumCPU().
func (t *Tester) SetWorkers(n int) {
	t.workers = n
}

// SetLogger sets the logger for summary messages.
func (t *Tester) SetLogger(l *zap.Logger) {
	t.logger = l
}

// SetUniversePolicy selects the background population.
func (t *Tester) SetUniversePolicy(p UniversePolicy) {
	t.policy = p
}

// Run tests every term annotating at least one universe gene. Every study
// gene must belong to universe. Study genes without annotation count
// toward the study total only. Terms are not propagated to their
// ancestors. g supplies term names, namespaces and depths and may be nil.
func (t *Tester) Run(ctx context.Context, universe annotation.Universe, study []string,
	ann annotation.GeneAnnotation, g *ontology.Graph) (*Report, error) {
	if t.alpha <= 0 || t.alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha %g outside (0, 1)", stats.ErrInvalidInput, t.alpha)
	}

	inU, outU := universe.Intersect(study)
	if len(outU) > 0 {
		return nil, fmt.Errorf("%w: %d study genes not in universe (first: %s)",
			stats.ErrInvalidInput, len(outU), outU[0])
	}

	ann = ann.Restrict(universe)
	if t.policy == UniverseAnnotated {
		universe = annotation.NewUniverse(ann.Genes())
		inU, _ = universe.Intersect(inU)
	}
	if len(inU) == 0 {
		return nil, fmt.Errorf("%w: empty study set", stats.ErrInvalidInput)
	}

	inStudy := make(map[string]bool, len(inU))
	for _, gene := range inU {
		inStudy[gene] = true
	}

	// term -> annotated universe genes, gene lists sorted
	population := make(map[string][]string)
	for _, gene := range ann.Genes() {
		for _, id := range ann[gene] {
			population[id] = append(population[id], gene)
		}
	}
	terms := make([]string, 0, len(population))
	for id := range population {
		terms = append(terms, id)
	}
	sort.Strings(terms)

	report := &Report{
		Alpha:        t.alpha,
		UniverseSize: universe.Len(),
		StudySize:    len(inU),
		Policy:       t.policy,
	}
	if len(terms) == 0 {
		t.logger.Warn("no annotated genes in universe; nothing to test")
		return report, nil
	}

	workers := t.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(terms))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, id := range terms {
		if egctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			res, err := testTerm(id, population[id], inStudy, report.UniverseSize, report.StudySize)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("test terms: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pvals := make([]float64, len(results))
	for i := range results {
		pvals[i] = results[i].P
	}
	corr, err := stats.BenjaminiHochberg(pvals, t.alpha)
	if err != nil {
		return nil, fmt.Errorf("correct term p-values: %w", err)
	}
	for i := range results {
		results[i].FDR = corr.Adjusted[i]
		results[i].Reject = corr.Reject[i]
		describe(&results[i], g)
	}

	SortResults(results)
	report.Results = results

	t.logger.Info("enrichment complete",
		zap.Int("universe", report.UniverseSize),
		zap.Int("study", report.StudySize),
		zap.Int("terms_tested", len(results)),
		zap.Int("significant", len(report.Significant())),
		zap.Stringer("universe_policy", t.policy))

	return report, nil
}

func testTerm(id string, annotated []string, inStudy map[string]bool, popTotal, studyTotal int) (Result, error) {
	var hits []string
	for _, gene := range annotated {
		if inStudy[gene] {
			hits = append(hits, gene)
		}
	}
	k, popCount := len(hits), len(annotated)

	p, err := stats.HypergeomSF(k, popTotal, popCount, studyTotal)
	if err != nil {
		return Result{}, fmt.Errorf("term %s: %w", id, err)
	}
	// 2x2 table: study/non-study by annotated/not annotated.
	two := stats.FisherTwoSided(k, studyTotal-k, popCount-k, popTotal-studyTotal-(popCount-k))

	return Result{
		GOID:            id,
		Depth:           -1,
		Enrichment:      enrichmentLabel(k, studyTotal, popCount, popTotal),
		StudyCount:      k,
		StudyTotal:      studyTotal,
		PopulationCount: popCount,
		PopulationTotal: popTotal,
		P:               p,
		TwoSidedP:       two,
		StudyGenes:      hits,
	}, nil
}

func describe(r *Result, g *ontology.Graph) {
	if g == nil {
		return
	}
	if term, ok := g.Term(r.GOID); ok {
		r.Name = term.Name
		r.Namespace = term.Namespace
	}
	r.Depth = g.Depth(r.GOID)
}
