package correlate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-coexp/internal/expr"
)

func newMatrix(t *testing.T, genes []string, rows [][]float64) *expr.Matrix {
	t.Helper()
	samples := make([]string, len(rows[0]))
	for i := range samples {
		samples[i] = fmt.Sprintf("S%d", i+1)
	}
	m, err := expr.NewMatrix(samples, genes, rows, expr.PrefixClassifier("V"))
	require.NoError(t, err)
	return m
}

func findRecord(records []Record, a, b string) (Record, bool) {
	for _, r := range records {
		if r.GeneA == a && r.GeneB == b {
			return r, true
		}
	}
	return Record{}, false
}

func TestEngine_PerfectCorrelationAfterMasking(t *testing.T) {
	m := newMatrix(t, []string{"V1", "H1"}, [][]float64{
		{0, 2, 4, 6, 8},
		{0, 1, 2, 3, 4},
	})

	res, err := NewEngine().Run(context.Background(), m)
	require.NoError(t, err)

	r, ok := findRecord(res.Records, "V1", "H1")
	require.True(t, ok, "V1-H1 record expected")
	assert.InDelta(t, 1.0, r.R, 1e-12)
	assert.Less(t, r.P, 1e-6)
	assert.Equal(t, 4, r.N)
	assert.Equal(t, expr.Host, r.ClassB)
	assert.False(t, r.Corrected())

	self, ok := findRecord(res.Records, "V1", "V1")
	require.True(t, ok, "self-pair is always tested")
	assert.InDelta(t, 1.0, self.R, 1e-12)
	assert.Equal(t, 4, self.N)
	assert.Equal(t, expr.Viral, self.ClassB)
}

func TestEngine_SparsePairSkipped(t *testing.T) {
	m := newMatrix(t, []string{"V1", "H2"}, [][]float64{
		{1, 0, 0, 3},
		{2, 0, 0, 0},
	})

	res, err := NewEngine().Run(context.Background(), m)
	require.NoError(t, err)

	_, ok := findRecord(res.Records, "V1", "H2")
	assert.False(t, ok, "pair with one joint sample must not be emitted")
	// V1 vs itself has only two nonzero samples as well.
	assert.Empty(t, res.Records)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.Pairs)
}

func TestEngine_ExactlyThreeJointSamplesIncluded(t *testing.T) {
	m := newMatrix(t, []string{"V1", "H1", "H2"}, [][]float64{
		{1, 2, 3, 0, 5},
		{2, 4, 7, 5, 0},
		{2, 4, 0, 5, 0},
	})

	res, err := NewEngine().Run(context.Background(), m)
	require.NoError(t, err)

	r, ok := findRecord(res.Records, "V1", "H1")
	require.True(t, ok)
	assert.Equal(t, 3, r.N)

	_, ok = findRecord(res.Records, "V1", "H2")
	assert.False(t, ok, "two joint samples is below the minimum")
}

func TestEngine_AllZeroAndConstantPairs(t *testing.T) {
	m := newMatrix(t, []string{"V1", "H0", "HC"}, [][]float64{
		{1, 2, 3, 4},
		{0, 0, 0, 0},
		{5, 5, 5, 5},
	})

	res, err := NewEngine().Run(context.Background(), m)
	require.NoError(t, err)

	_, ok := findRecord(res.Records, "V1", "H0")
	assert.False(t, ok)
	_, ok = findRecord(res.Records, "V1", "HC")
	assert.False(t, ok)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Constant)
}

func TestEngine_HostPairsNotTested(t *testing.T) {
	m := newMatrix(t, []string{"H1", "H2"}, [][]float64{
		{1, 2, 3, 4},
		{2, 3, 4, 9},
	})

	res, err := NewEngine().Run(context.Background(), m)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Pairs)
}

func TestEngine_OrderAndBoundsIndependentOfWorkers(t *testing.T) {
	genes := []string{"V1", "H1", "V2", "H2", "H3", "V3"}
	rows := [][]float64{
		{1, 5, 2, 8, 3, 0, 4},
		{2, 4, 1, 9, 2, 1, 5},
		{0, 3, 3, 1, 7, 2, 2},
		{9, 1, 4, 2, 0, 6, 1},
		{3, 3, 0, 4, 4, 5, 6},
		{4, 0, 6, 2, 5, 3, 1},
	}
	m := newMatrix(t, genes, rows)

	var baseline []Record
	for _, workers := range []int{1, 2, 8} {
		e := NewEngine()
		e.SetWorkers(workers)
		res, err := e.Run(context.Background(), m)
		require.NoError(t, err)

		for _, r := range res.Records {
			assert.GreaterOrEqual(t, r.R, -1.0)
			assert.LessOrEqual(t, r.R, 1.0)
			assert.GreaterOrEqual(t, r.P, 0.0)
			assert.LessOrEqual(t, r.P, 1.0)
			assert.GreaterOrEqual(t, r.N, MinJointSamples)
		}

		if baseline == nil {
			baseline = res.Records
			continue
		}
		assert.Equal(t, baseline, res.Records, "workers=%d", workers)
	}

	// Grouped by viral gene, host targets before viral targets.
	require.NotEmpty(t, baseline)
	assert.Equal(t, "V1", baseline[0].GeneA)
	assert.Equal(t, expr.Host, baseline[0].ClassB)
}

func TestEngine_RunTotalLoad(t *testing.T) {
	m := newMatrix(t, []string{"V1", "V2", "H1", "H2"}, [][]float64{
		{1, 0, 2, 3, 0},
		{1, 2, 0, 3, 0},
		{1, 1, 1, 3, 5},
		{7, 0, 0, 0, 1},
	})

	res, err := NewEngine().RunTotalLoad(context.Background(), m)
	require.NoError(t, err)

	// viral total = [2, 2, 2, 6, 0]
	r, ok := findRecord(res.Records, TotalViralLoad, "H1")
	require.True(t, ok)
	assert.Equal(t, 4, r.N)
	assert.InDelta(t, 1.0, r.R, 1e-12)

	_, ok = findRecord(res.Records, TotalViralLoad, "H2")
	assert.False(t, ok)
	assert.Equal(t, 1, res.Skipped)
}

func TestEngine_CancelledContext(t *testing.T) {
	m := newMatrix(t, []string{"V1", "H1"}, [][]float64{{1, 2, 3}, {3, 1, 2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine().Run(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}
