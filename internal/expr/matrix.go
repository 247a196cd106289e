// Package expr holds the gene-by-sample expression matrix consumed by the
// correlation engine, together with the organism tag carried by each gene.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidMatrix reports a structurally malformed expression matrix.
var ErrInvalidMatrix = errors.New("invalid expression matrix")

// Organism tags a gene as belonging to the virus or to the host.
type Organism int

const (
	Host Organism = iota
	Viral
)

func (o Organism) String() string {
	switch o {
	case Viral:
		return "viral"
	case Host:
		return "host"
	}
	return fmt.Sprintf("Organism(%d)", int(o))
}

// ParseOrganism is the inverse of Organism.String.
func ParseOrganism(s string) (Organism, error) {
	switch strings.ToLower(s) {
	case "viral":
		return Viral, nil
	case "host":
		return Host, nil
	}
	return Host, fmt.Errorf("unknown organism %q", s)
}

// Classifier assigns an organism to a gene identifier. It runs once per
// gene when the matrix is built.
type Classifier func(gene string) Organism

// PrefixClassifier tags genes starting with prefix as viral and every
// other gene as host.
func PrefixClassifier(prefix string) Classifier {
	return func(gene string) Organism {
		if strings.HasPrefix(gene, prefix) {
			return Viral
		}
		return Host
	}
}

// Matrix is an immutable gene-by-sample table of non-negative expression
// values.
type Matrix struct {
	samples []string
	genes   []string
	tags    []Organism
	rows    [][]float64
	index   map[string]int
}

// NewMatrix validates rows and builds a Matrix. rows[i] holds the values
// of genes[i], one per sample. The slices are copied.
func NewMatrix(samples, genes []string, rows [][]float64, classify Classifier) (*Matrix, error) {
	if classify == nil {
		return nil, fmt.Errorf("%w: no gene classifier", ErrInvalidMatrix)
	}
	if len(genes) != len(rows) {
		return nil, fmt.Errorf("%w: %d genes but %d rows", ErrInvalidMatrix, len(genes), len(rows))
	}

	m := &Matrix{
		samples: append([]string(nil), samples...),
		genes:   make([]string, 0, len(genes)),
		tags:    make([]Organism, 0, len(genes)),
		rows:    make([][]float64, 0, len(genes)),
		index:   make(map[string]int, len(genes)),
	}

	for i, g := range genes {
		if g == "" {
			return nil, fmt.Errorf("%w: empty gene identifier at row %d", ErrInvalidMatrix, i+1)
		}
		if _, dup := m.index[g]; dup {
			return nil, fmt.Errorf("%w: duplicate gene %q", ErrInvalidMatrix, g)
		}
		if len(rows[i]) != len(samples) {
			return nil, fmt.Errorf("%w: gene %q has %d values for %d samples",
				ErrInvalidMatrix, g, len(rows[i]), len(samples))
		}
		for j, v := range rows[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("%w: gene %q sample %q has value %g",
					ErrInvalidMatrix, g, samples[j], v)
			}
		}

		m.index[g] = len(m.genes)
		m.genes = append(m.genes, g)
		m.tags = append(m.tags, classify(g))
		m.rows = append(m.rows, append([]float64(nil), rows[i]...))
	}

	return m, nil
}

// Samples returns the ordered sample names.
func (m *Matrix) Samples() []string { return append([]string(nil), m.samples...) }

// Genes returns all gene identifiers in matrix order.
func (m *Matrix) Genes() []string { return append([]string(nil), m.genes...) }

// GeneCount returns the number of genes.
func (m *Matrix) GeneCount() int { return len(m.genes) }

// SampleCount returns the number of samples.
func (m *Matrix) SampleCount() int { return len(m.samples) }

// GenesOf returns the genes tagged with o, in matrix order.
func (m *Matrix) GenesOf(o Organism) []string {
	var out []string
	for i, g := range m.genes {
		if m.tags[i] == o {
			out = append(out, g)
		}
	}
	return out
}

// Organism returns the tag assigned to gene at ingestion.
func (m *Matrix) Organism(gene string) (Organism, bool) {
	i, ok := m.index[gene]
	if !ok {
		return Host, false
	}
	return m.tags[i], true
}

// Row returns the expression vector of gene. The returned slice is shared
// and must not be modified.
func (m *Matrix) Row(gene string) ([]float64, bool) {
	i, ok := m.index[gene]
	if !ok {
		return nil, false
	}
	return m.rows[i], true
}

// Sum returns the per-sample sum of the vectors of genes tagged with o.
func (m *Matrix) Sum(o Organism) []float64 {
	total := make([]float64, len(m.samples))
	for i, row := range m.rows {
		if m.tags[i] != o {
			continue
		}
		for j, v := range row {
			total[j] += v
		}
	}
	return total
}
