// Package annotation merges raw per-gene GO annotation strings from one or
// more sources into a validated gene to GO term mapping.
package annotation

import (
	"slices"
	"sort"
)

// GeneAnnotation maps a gene to its sorted, deduplicated GO term ids.
type GeneAnnotation map[string][]string

// Terms returns the terms of gene; missing genes have no terms.
func (a GeneAnnotation) Terms(gene string) []string {
	return a[gene]
}

// Genes returns the annotated genes, sorted.
func (a GeneAnnotation) Genes() []string {
	genes := make([]string, 0, len(a))
	for g := range a {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

// Merge returns the union of a and other. Neither input is modified.
func (a GeneAnnotation) Merge(other GeneAnnotation) GeneAnnotation {
	out := make(GeneAnnotation, len(a))
	for _, src := range []GeneAnnotation{a, other} {
		for g, terms := range src {
			out[g] = unionSorted(out[g], terms)
		}
	}
	return out
}

// Restrict returns the annotation of the genes in u only.
func (a GeneAnnotation) Restrict(u Universe) GeneAnnotation {
	out := make(GeneAnnotation, len(a))
	for g, terms := range a {
		if u.Contains(g) {
			out[g] = terms
		}
	}
	return out
}

func unionSorted(a, b []string) []string {
	out := append(append(make([]string, 0, len(a)+len(b)), a...), b...)
	sort.Strings(out)
	return slices.Compact(out)
}

// Universe is a sorted set of background gene ids.
type Universe struct {
	genes []string
	set   map[string]bool
}

// NewUniverse builds a universe from genes, ignoring duplicates.
func NewUniverse(genes []string) Universe {
	u := Universe{set: make(map[string]bool, len(genes))}
	for _, g := range genes {
		if !u.set[g] {
			u.set[g] = true
			u.genes = append(u.genes, g)
		}
	}
	sort.Strings(u.genes)
	return u
}

// Len returns the number of genes.
func (u Universe) Len() int { return len(u.genes) }

// Contains reports whether gene is in the universe.
func (u Universe) Contains(gene string) bool { return u.set[gene] }

// Genes returns the sorted gene ids.
func (u Universe) Genes() []string { return append([]string(nil), u.genes...) }

// Intersect returns the sorted genes of genes that belong to u, and the
// sorted genes that do not.
func (u Universe) Intersect(genes []string) (in, out []string) {
	seen := make(map[string]bool, len(genes))
	for _, g := range genes {
		if seen[g] {
			continue
		}
		seen[g] = true
		if u.set[g] {
			in = append(in, g)
		} else {
			out = append(out, g)
		}
	}
	sort.Strings(in)
	sort.Strings(out)
	return in, out
}
