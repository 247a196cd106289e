package enrich

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-coexp/internal/annotation"
	"github.com/inodb/vibe-coexp/internal/ontology"
	"github.com/inodb/vibe-coexp/internal/stats"
)

const testOBO = `format-version: 1.2

[Term]
id: GO:0008150
name: biological_process
namespace: biological_process

[Term]
id: GO:0000001
name: mitochondrion inheritance
namespace: biological_process
is_a: GO:0008150 ! biological_process

[Term]
id: GO:0000002
name: mitochondrial genome maintenance
namespace: biological_process
is_a: GO:0000001 ! mitochondrion inheritance
`

func genes(prefix string, from, to int) []string {
	var out []string
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("%s%03d", prefix, i))
	}
	return out
}

// fixture builds a 100-gene universe where GO:0000001 annotates g000-g019
// and GO:0000002 annotates g090-g099. The study set holds five annotated
// genes (g000-g004) and five unannotated ones (g050-g054).
func fixture(t *testing.T) (annotation.Universe, []string, annotation.GeneAnnotation, *ontology.Graph) {
	t.Helper()
	g, err := ontology.Parse(strings.NewReader(testOBO))
	require.NoError(t, err)

	ann := annotation.GeneAnnotation{}
	for _, gene := range genes("g", 0, 20) {
		ann[gene] = []string{"GO:0000001"}
	}
	for _, gene := range genes("g", 90, 100) {
		ann[gene] = []string{"GO:0000002"}
	}
	study := append(genes("g", 0, 5), genes("g", 50, 55)...)
	return annotation.NewUniverse(genes("g", 0, 100)), study, ann, g
}

func TestTester_ClosedFormCounts(t *testing.T) {
	u, study, ann, g := fixture(t)

	report, err := NewTester(0.1).Run(context.Background(), u, study, ann, g)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 100, report.UniverseSize)
	assert.Equal(t, 10, report.StudySize)

	top := report.Results[0]
	assert.Equal(t, "GO:0000001", top.GOID)
	assert.Equal(t, "mitochondrion inheritance", top.Name)
	assert.Equal(t, "biological_process", top.Namespace)
	assert.Equal(t, 1, top.Depth)
	assert.Equal(t, "e", top.Enrichment)
	assert.Equal(t, 5, top.StudyCount)
	assert.Equal(t, 10, top.StudyTotal)
	assert.Equal(t, 20, top.PopulationCount)
	assert.Equal(t, 100, top.PopulationTotal)
	assert.InDelta(t, 0.025464546427043124, top.P, 1e-12)
	assert.InDelta(t, 2*0.025464546427043124, top.FDR, 1e-12)
	assert.True(t, top.Reject)
	assert.Equal(t, genes("g", 0, 5), top.StudyGenes)
	assert.GreaterOrEqual(t, top.TwoSidedP, 0.0)
	assert.LessOrEqual(t, top.TwoSidedP, 1.0)

	other := report.Results[1]
	assert.Equal(t, "GO:0000002", other.GOID)
	assert.Equal(t, 0, other.StudyCount)
	assert.Equal(t, "p", other.Enrichment)
	assert.Equal(t, 1.0, other.P)
	assert.Equal(t, 1.0, other.FDR)
	assert.Equal(t, 2, other.Depth)
	assert.Empty(t, other.StudyGenes)

	sig := report.Significant()
	require.Len(t, sig, 1)
	assert.Equal(t, "GO:0000001", sig[0].GOID)
}

func TestTester_TwoSidedLargeUniverse(t *testing.T) {
	g, err := ontology.Parse(strings.NewReader(testOBO))
	require.NoError(t, err)

	// 1000 genes, 100 annotated; 5 of 50 study genes hit the term, which
	// is exactly the population ratio.
	ann := annotation.GeneAnnotation{}
	for _, gene := range genes("g", 0, 100) {
		ann[gene] = []string{"GO:0000001"}
	}
	study := append(genes("g", 0, 5), genes("g", 500, 545)...)

	report, err := NewTester(0.05).Run(context.Background(), annotation.NewUniverse(genes("g", 0, 1000)), study, ann, g)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	want, err := stats.HypergeomSF(5, 1000, 100, 50)
	require.NoError(t, err)
	assert.InDelta(t, want, r.P, 1e-12)
	assert.InDelta(t, 1.0, r.TwoSidedP, 1e-9)
	assert.False(t, r.Reject)
}

func TestTester_CountBounds(t *testing.T) {
	u, study, ann, g := fixture(t)
	report, err := NewTester(0.05).Run(context.Background(), u, study, ann, g)
	require.NoError(t, err)

	for _, r := range report.Results {
		assert.LessOrEqual(t, r.StudyCount, r.StudyTotal)
		assert.LessOrEqual(t, r.StudyCount, r.PopulationCount)
		assert.LessOrEqual(t, r.PopulationCount, r.PopulationTotal)
		assert.LessOrEqual(t, r.StudyTotal, r.PopulationTotal)
		assert.GreaterOrEqual(t, r.FDR, r.P)
		assert.True(t, r.P >= 0 && r.P <= 1)
	}
	assert.Empty(t, report.Significant(), "FDR of 0.0509 is not below 0.05")
}

func TestTester_StudyOutsideUniverse(t *testing.T) {
	u, study, ann, g := fixture(t)
	_, err := NewTester(0.05).Run(context.Background(), u, append(study, "stranger"), ann, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
	assert.Contains(t, err.Error(), "stranger")
}

func TestTester_EmptyStudy(t *testing.T) {
	u, _, ann, g := fixture(t)
	_, err := NewTester(0.05).Run(context.Background(), u, nil, ann, g)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestTester_InvalidAlpha(t *testing.T) {
	u, study, ann, g := fixture(t)
	_, err := NewTester(1).Run(context.Background(), u, study, ann, g)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestTester_UniverseAnnotated(t *testing.T) {
	u, study, ann, g := fixture(t)

	tester := NewTester(0.05)
	tester.SetUniversePolicy(UniverseAnnotated)
	report, err := tester.Run(context.Background(), u, study, ann, g)
	require.NoError(t, err)

	// Only the 30 annotated genes remain; unannotated study genes drop out.
	assert.Equal(t, 30, report.UniverseSize)
	assert.Equal(t, 5, report.StudySize)
	assert.Equal(t, UniverseAnnotated, report.Policy)

	top := report.Results[0]
	assert.Equal(t, "GO:0000001", top.GOID)
	assert.Equal(t, 30, top.PopulationTotal)
	assert.Equal(t, 5, top.StudyTotal)

	want, err := stats.HypergeomSF(5, 30, 20, 5)
	require.NoError(t, err)
	assert.InDelta(t, want, top.P, 1e-12)
}

func TestTester_AnnotationOutsideUniverseIgnored(t *testing.T) {
	u, study, ann, g := fixture(t)
	ann["elsewhere"] = []string{"GO:0000001", "GO:0008150"}

	report, err := NewTester(0.05).Run(context.Background(), u, study, ann, g)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 20, report.Results[0].PopulationCount)
}

func TestTester_NilGraph(t *testing.T) {
	u, study, ann, _ := fixture(t)
	report, err := NewTester(0.05).Run(context.Background(), u, study, ann, nil)
	require.NoError(t, err)
	assert.Equal(t, "", report.Results[0].Name)
	assert.Equal(t, -1, report.Results[0].Depth)
}

func TestTester_WorkerCountDeterministic(t *testing.T) {
	u := annotation.NewUniverse(genes("g", 0, 200))
	ann := annotation.GeneAnnotation{}
	for i, gene := range genes("g", 0, 200) {
		ann[gene] = []string{fmt.Sprintf("GO:%07d", i%17), fmt.Sprintf("GO:%07d", 100+i%5)}
	}
	study := genes("g", 0, 40)

	var reports []*Report
	for _, w := range []int{1, 3, 16} {
		tester := NewTester(0.05)
		tester.SetWorkers(w)
		r, err := tester.Run(context.Background(), u, study, ann, nil)
		require.NoError(t, err)
		reports = append(reports, r)
	}
	assert.Len(t, reports[0].Results, 22)
	assert.Equal(t, reports[0].Results, reports[1].Results)
	assert.Equal(t, reports[0].Results, reports[2].Results)
}

func TestTester_CancelledContext(t *testing.T) {
	u, study, ann, g := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTester(0.05).Run(ctx, u, study, ann, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseUniversePolicy(t *testing.T) {
	p, err := ParseUniversePolicy("Annotated")
	require.NoError(t, err)
	assert.Equal(t, UniverseAnnotated, p)

	p, err = ParseUniversePolicy("all")
	require.NoError(t, err)
	assert.Equal(t, UniverseAll, p)
	assert.Equal(t, "all", p.String())

	_, err = ParseUniversePolicy("some")
	assert.Error(t, err)
}

func TestSortResults(t *testing.T) {
	rs := []Result{
		{GOID: "GO:3", FDR: 0.1, P: 0.01},
		{GOID: "GO:2", FDR: 0.1, P: 0.01},
		{GOID: "GO:1", FDR: 0.1, P: 0.02},
		{GOID: "GO:4", FDR: 0.01, P: 0.01},
	}
	SortResults(rs)
	var ids []string
	for _, r := range rs {
		ids = append(ids, r.GOID)
	}
	assert.Equal(t, []string{"GO:4", "GO:2", "GO:3", "GO:1"}, ids)
}
