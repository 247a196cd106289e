package annotation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver resolves ids through a fixed table; ids mapped to "" are
// treated as unknown.
type mapResolver map[string]string

func (m mapResolver) Resolve(id string) (string, bool) {
	to, ok := m[id]
	if !ok || to == "" {
		return "", false
	}
	return to, true
}

func TestExtractTermIDs(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"GO:0004672; GO:0005524", []string{"GO:0004672", "GO:0005524"}},
		{"protein kinase activity [GO:0004672];ATP binding [GO:0005524]", []string{"GO:0004672", "GO:0005524"}},
		{"", nil},
		{"no ids here", nil},
		{"GO:123; GO:00046721", []string{"GO:0004672"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTermIDs(tt.raw))
		})
	}
}

func TestReadRows(t *testing.T) {
	input := "locus\tproduct\tGO_terms\n" +
		"g1\tkinase\tGO:0004672;GO:0005524\n" +
		"g2 g3\tpair\tGO:0006915\n" +
		"g4\tnothing\t\n" +
		"\n" +
		"g5\tshort\n"

	rows, err := ReadRows(strings.NewReader(input), DefaultGeneColumn, DefaultTermColumn)
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{Gene: "g1", Terms: "GO:0004672;GO:0005524"},
		{Gene: "g2", Terms: "GO:0006915"},
		{Gene: "g3", Terms: "GO:0006915"},
		{Gene: "g4", Terms: ""},
		{Gene: "g5", Terms: ""},
	}, rows)
}

func TestReadRows_MissingColumn(t *testing.T) {
	_, err := ReadRows(strings.NewReader("gene\tGO_terms\ng1\tGO:0004672\n"), DefaultGeneColumn, DefaultTermColumn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locus")
}

func TestReadRows_Empty(t *testing.T) {
	_, err := ReadRows(strings.NewReader(""), DefaultGeneColumn, DefaultTermColumn)
	require.Error(t, err)
}

func TestBuilder_UnionsAcrossSources(t *testing.T) {
	b := NewBuilder()
	b.Add("interpro", Row{Gene: "g1", Terms: "GO:0000001"})
	b.Add("eggnog",
		Row{Gene: "g1", Terms: "GO:0000002;GO:0000001"},
		Row{Gene: "g2", Terms: ""},
	)

	res := mapResolver{"GO:0000001": "GO:0000001", "GO:0000002": "GO:0000002"}
	ann, st := b.Build(res)

	assert.Equal(t, GeneAnnotation{"g1": {"GO:0000001", "GO:0000002"}}, ann)
	assert.Equal(t, 2, st.Genes)
	assert.Equal(t, 1, st.AnnotatedGenes)
	assert.Equal(t, 1, st.GenesWithoutTerm)
	assert.Equal(t, map[string]int{"interpro": 1, "eggnog": 2}, st.RowsPerSource)

	u := b.Universe()
	assert.Equal(t, []string{"g1", "g2"}, u.Genes())
	assert.True(t, u.Contains("g2"))
}

func TestBuilder_ResolvesAndDrops(t *testing.T) {
	b := NewBuilder()
	b.Add("src",
		Row{Gene: "g1", Terms: "GO:0000010;GO:0000011;GO:0000012"},
		Row{Gene: "g2", Terms: "GO:0000012"},
	)

	// 10 is current, 11 is an alt_id of 10, 12 is obsolete with no replacement.
	res := mapResolver{"GO:0000010": "GO:0000010", "GO:0000011": "GO:0000010", "GO:0000012": ""}
	ann, st := b.Build(res)

	assert.Equal(t, GeneAnnotation{"g1": {"GO:0000010"}}, ann)
	assert.Equal(t, 4, st.RawTerms)
	assert.Equal(t, 2, st.DroppedTerms)
	assert.Equal(t, 1, st.RemappedTerms)
	_, ok := ann["g2"]
	assert.False(t, ok)
}

func TestGeneAnnotation_Merge(t *testing.T) {
	a := GeneAnnotation{"g1": {"GO:0000001"}, "g2": {"GO:0000003"}}
	b := GeneAnnotation{"g1": {"GO:0000002", "GO:0000001"}}

	merged := a.Merge(b)
	assert.Equal(t, GeneAnnotation{
		"g1": {"GO:0000001", "GO:0000002"},
		"g2": {"GO:0000003"},
	}, merged)

	assert.Equal(t, merged, merged.Merge(merged), "merge must be idempotent")
	assert.Equal(t, []string{"GO:0000001"}, a["g1"], "inputs are not modified")
}

func TestUniverse_Intersect(t *testing.T) {
	u := NewUniverse([]string{"b", "a", "c", "a"})
	assert.Equal(t, 3, u.Len())

	in, out := u.Intersect([]string{"c", "x", "a", "c"})
	assert.Equal(t, []string{"a", "c"}, in)
	assert.Equal(t, []string{"x"}, out)
}

func TestGeneAnnotation_Restrict(t *testing.T) {
	ann := GeneAnnotation{"g1": {"GO:0000001"}, "g2": {"GO:0000002"}}
	got := ann.Restrict(NewUniverse([]string{"g2", "g3"}))
	assert.Equal(t, GeneAnnotation{"g2": {"GO:0000002"}}, got)
	assert.Equal(t, []string{"g2"}, got.Genes())
}
