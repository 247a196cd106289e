package ontology

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOBO = `format-version: 1.2
data-version: releases/2024-01-17
ontology: go

[Term]
id: GO:0008150
name: biological_process
namespace: biological_process

[Term]
id: GO:0009987
name: cellular process
namespace: biological_process
is_a: GO:0008150 ! biological_process

[Term]
id: GO:0006915
name: apoptotic process
namespace: biological_process
alt_id: GO:0006917
is_a: GO:0012501 ! programmed cell death

[Term]
id: GO:0012501
name: programmed cell death
namespace: biological_process
is_a: GO:0009987 ! cellular process {source="GOC:x"}

[Term]
id: GO:0005575
name: cellular_component
namespace: cellular_component

[Term]
id: GO:0005634
name: nucleus
namespace: cellular_component
is_a: GO:0005575
relationship: part_of GO:0005622 ! intracellular anatomical structure

[Term]
id: GO:0005622
name: intracellular anatomical structure
namespace: cellular_component
is_a: GO:0005575

[Term]
id: GO:0000001
name: obsolete mitochondrion inheritance
namespace: biological_process
is_obsolete: true
replaced_by: GO:0006915

[Term]
id: GO:0000002
name: obsolete thing
namespace: molecular_function
is_obsolete: true

[Typedef]
id: part_of
name: part of
is_transitive: true
`

func parseTestOBO(t *testing.T) *Graph {
	t.Helper()
	g, err := Parse(strings.NewReader(testOBO))
	require.NoError(t, err)
	return g
}

func TestParse_Terms(t *testing.T) {
	g := parseTestOBO(t)
	assert.Equal(t, 9, g.Len())

	term, ok := g.Term("GO:0005634")
	require.True(t, ok)
	assert.Equal(t, "nucleus", term.Name)
	assert.Equal(t, "cellular_component", term.Namespace)
	assert.Equal(t, []string{"GO:0005575"}, term.IsA)
	assert.Equal(t, []string{"GO:0005622"}, term.PartOf)

	term, ok = g.Term("GO:0012501")
	require.True(t, ok)
	assert.Equal(t, []string{"GO:0009987"}, term.IsA, "qualifier block stripped")

	assert.False(t, g.Contains("part_of"), "typedef stanzas are not terms")
}

func TestGraph_Membership(t *testing.T) {
	g := parseTestOBO(t)

	assert.True(t, g.Contains("GO:0006915"))
	assert.True(t, g.Contains("GO:0006917"), "alt_id is a member")
	assert.True(t, g.Contains("GO:0000002"), "obsolete terms are members")
	assert.False(t, g.Contains("GO:9999999"))

	assert.True(t, g.IsObsolete("GO:0000002"))
	assert.False(t, g.IsObsolete("GO:0006915"))
	assert.False(t, g.IsObsolete("GO:9999999"))
}

func TestGraph_Resolve(t *testing.T) {
	g := parseTestOBO(t)

	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"GO:0006915", "GO:0006915", true},
		{"GO:0006917", "GO:0006915", true},
		{"GO:0000001", "GO:0006915", true},
		{"GO:0000002", "", false},
		{"GO:1234567", "", false},
	}
	for _, tt := range tests {
		got, ok := g.Resolve(tt.id)
		assert.Equal(t, tt.wantOK, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestGraph_Depth(t *testing.T) {
	g := parseTestOBO(t)

	assert.Equal(t, 0, g.Depth("GO:0008150"))
	assert.Equal(t, 1, g.Depth("GO:0009987"))
	assert.Equal(t, 3, g.Depth("GO:0006915"))
	assert.Equal(t, 3, g.Depth("GO:0006917"))
	assert.Equal(t, 1, g.Depth("GO:0005634"), "part_of does not count toward depth")
	assert.Equal(t, -1, g.Depth("GO:9999999"))
}

func TestParse_Cycle(t *testing.T) {
	obo := `[Term]
id: GO:1
is_a: GO:2

[Term]
id: GO:2
is_a: GO:3

[Term]
id: GO:3
relationship: part_of GO:1
`
	_, err := Parse(strings.NewReader(obo))
	assert.ErrorIs(t, err, ErrCycle)
}

func TestParse_SelfParent(t *testing.T) {
	_, err := Parse(strings.NewReader("[Term]\nid: GO:1\nis_a: GO:1\n"))
	assert.ErrorIs(t, err, ErrCycle)
}

func TestParse_DuplicateTerm(t *testing.T) {
	_, err := Parse(strings.NewReader("[Term]\nid: GO:1\n\n[Term]\nid: GO:1\n"))
	assert.Error(t, err)
}

func TestParse_MissingID(t *testing.T) {
	_, err := Parse(strings.NewReader("[Term]\nname: nothing\n"))
	assert.Error(t, err)
}

func TestParse_UnknownParentDropped(t *testing.T) {
	g, err := Parse(strings.NewReader("[Term]\nid: GO:1\nis_a: GO:404\n"))
	require.NoError(t, err)
	term, _ := g.Term("GO:1")
	assert.Empty(t, term.IsA)
	assert.Equal(t, 0, g.Depth("GO:1"))
}

func TestLoad_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testOBO))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "go-basic.obo.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, g.Len())
}

func TestLoad_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go-basic.obo")
	require.NoError(t, os.WriteFile(path, []byte(testOBO), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.True(t, g.Contains("GO:0005634"))
}
