package correlate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-coexp/internal/expr"
	"github.com/inodb/vibe-coexp/internal/stats"
)

// Result is the outcome of a correlation run.
type Result struct {
	Records  []Record
	Pairs    int // pairs considered
	Skipped  int // pairs below MinJointSamples
	Constant int // pairs with a zero-variance masked vector
}

// Engine computes masked pairwise correlations.
type Engine struct {
	workers int
	logger  *zap.Logger
}

// NewEngine creates an engine that uses one worker per CPU.
func NewEngine() *Engine {
	return &Engine{logger: zap.NewNop()}
}

// SetWorkers sets the number of parallel workers; 0 means runtime.NumCPU().
func (e *Engine) SetWorkers(n int) {
	e.workers = n
}

// SetLogger sets the logger for progress and summary messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Run correlates every viral gene of m with every host gene and with
// every viral gene, itself included. Records come back grouped by viral
// gene in matrix order, host targets before viral targets.
func (e *Engine) Run(ctx context.Context, m *expr.Matrix) (*Result, error) {
	viral := m.GenesOf(expr.Viral)
	host := m.GenesOf(expr.Host)

	targets := make([]Target, 0, len(host)+len(viral))
	for _, class := range []struct {
		genes []string
		tag   expr.Organism
	}{{host, expr.Host}, {viral, expr.Viral}} {
		for _, g := range class.genes {
			row, _ := m.Row(g)
			targets = append(targets, Target{Gene: g, Class: class.tag, Vector: row})
		}
	}

	e.logger.Info("correlating",
		zap.Int("viral_genes", len(viral)),
		zap.Int("host_genes", len(host)),
		zap.Int("samples", m.SampleCount()))

	vectors := make([]WorkItem, len(viral))
	for i, g := range viral {
		row, _ := m.Row(g)
		vectors[i] = WorkItem{Seq: i, Gene: g, Vector: row}
	}
	return e.run(ctx, vectors, targets)
}

// RunTotalLoad correlates every host gene with the per-sample sum of all
// viral genes. Records use TotalViralLoad as GeneA.
func (e *Engine) RunTotalLoad(ctx context.Context, m *expr.Matrix) (*Result, error) {
	host := m.GenesOf(expr.Host)
	targets := make([]Target, 0, len(host))
	for _, g := range host {
		row, _ := m.Row(g)
		targets = append(targets, Target{Gene: g, Class: expr.Host, Vector: row})
	}

	if len(m.GenesOf(expr.Viral)) == 0 {
		e.logger.Warn("no viral genes in matrix, total viral load is zero")
	}

	items := []WorkItem{{Seq: 0, Gene: TotalViralLoad, Vector: m.Sum(expr.Viral)}}
	return e.run(ctx, items, targets)
}

func (e *Engine) run(ctx context.Context, work []WorkItem, targets []Target) (*Result, error) {
	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for _, it := range work {
			select {
			case items <- it:
			case <-ctx.Done():
				return
			}
		}
	}()

	res := &Result{}
	err := OrderedCollect(ParallelCorrelate(items, targets, e.workers), func(r WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("correlate %s: %w", r.Gene, r.Err)
		}
		res.Records = append(res.Records, r.Records...)
		res.Pairs += len(targets)
		res.Skipped += r.Skipped
		res.Constant += r.Constant
		e.logger.Debug("correlated gene",
			zap.String("gene", r.Gene),
			zap.Int("records", len(r.Records)),
			zap.Int("skipped", r.Skipped))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Info("correlation finished",
		zap.Int("pairs", res.Pairs),
		zap.Int("records", len(res.Records)),
		zap.Int("skipped_sparse", res.Skipped),
		zap.Int("skipped_constant", res.Constant))

	return res, nil
}

// correlateItem correlates one vector against all targets.
func correlateItem(item WorkItem, targets []Target) WorkResult {
	out := WorkResult{Seq: item.Seq, Gene: item.Gene}
	x := make([]float64, 0, len(item.Vector))
	y := make([]float64, 0, len(item.Vector))

	for _, t := range targets {
		x, y = maskNonzero(item.Vector, t.Vector, x[:0], y[:0])
		if len(x) < MinJointSamples {
			out.Skipped++
			continue
		}

		r, p, err := stats.Pearson(x, y)
		if errors.Is(err, stats.ErrConstantInput) {
			out.Constant++
			continue
		}
		if err != nil {
			out.Err = fmt.Errorf("%s vs %s: %w", item.Gene, t.Gene, err)
			return out
		}

		out.Records = append(out.Records, Record{
			GeneA:  item.Gene,
			GeneB:  t.Gene,
			ClassB: t.Class,
			R:      r,
			P:      p,
			N:      len(x),
		})
	}
	return out
}

// maskNonzero appends to x and y the values of a and b at positions where
// both are nonzero.
func maskNonzero(a, b, x, y []float64) ([]float64, []float64) {
	for i := range a {
		if a[i] != 0 && b[i] != 0 {
			x = append(x, a[i])
			y = append(y, b[i])
		}
	}
	return x, y
}
