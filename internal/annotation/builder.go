package annotation

import (
	"sort"

	"go.uber.org/zap"
)

// TermResolver maps a raw GO id to the current primary id it stands for.
// *ontology.Graph implements it.
type TermResolver interface {
	Resolve(id string) (string, bool)
}

// BuildStats summarises a Build.
type BuildStats struct {
	Genes            int // genes seen in any source row
	AnnotatedGenes   int // genes with at least one valid term
	RawTerms         int // distinct (gene, raw term) pairs
	DroppedTerms     int // raw terms that did not resolve
	RemappedTerms    int // raw terms resolved to a different id
	RowsPerSource    map[string]int
	GenesWithoutTerm int // genes whose terms were all dropped or absent
}

// Builder accumulates raw annotation rows from any number of sources.
// Term ids for a gene are unioned across rows and sources.
type Builder struct {
	raw     map[string]map[string]bool
	sources map[string]int
	logger  *zap.Logger
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		raw:     make(map[string]map[string]bool),
		sources: make(map[string]int),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for build summaries.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Add records rows from the named source.
func (b *Builder) Add(source string, rows ...Row) {
	b.sources[source] += len(rows)
	for _, r := range rows {
		terms, ok := b.raw[r.Gene]
		if !ok {
			terms = make(map[string]bool)
			b.raw[r.Gene] = terms
		}
		for _, id := range ExtractTermIDs(r.Terms) {
			terms[id] = true
		}
	}
}

// Universe returns every gene seen in any added row, annotated or not.
func (b *Builder) Universe() Universe {
	genes := make([]string, 0, len(b.raw))
	for g := range b.raw {
		genes = append(genes, g)
	}
	return NewUniverse(genes)
}

// Build validates the accumulated terms against res. Terms that do not
// resolve are dropped; genes left without terms are omitted from the
// returned annotation. Term lists are sorted.
func (b *Builder) Build(res TermResolver) (GeneAnnotation, BuildStats) {
	st := BuildStats{Genes: len(b.raw), RowsPerSource: make(map[string]int, len(b.sources))}
	for s, n := range b.sources {
		st.RowsPerSource[s] = n
	}

	ann := make(GeneAnnotation, len(b.raw))
	for gene, raw := range b.raw {
		valid := make(map[string]bool, len(raw))
		for id := range raw {
			st.RawTerms++
			resolved, ok := res.Resolve(id)
			if !ok {
				st.DroppedTerms++
				continue
			}
			if resolved != id {
				st.RemappedTerms++
			}
			valid[resolved] = true
		}
		if len(valid) == 0 {
			st.GenesWithoutTerm++
			continue
		}
		terms := make([]string, 0, len(valid))
		for id := range valid {
			terms = append(terms, id)
		}
		sort.Strings(terms)
		ann[gene] = terms
	}
	st.AnnotatedGenes = len(ann)

	b.logger.Info("annotation built",
		zap.Int("genes", st.Genes),
		zap.Int("annotated_genes", st.AnnotatedGenes),
		zap.Int("raw_terms", st.RawTerms),
		zap.Int("dropped_terms", st.DroppedTerms),
		zap.Int("remapped_terms", st.RemappedTerms))

	return ann, st
}
