// Package ontology loads the Gene Ontology from OBO files into a read-only
// directed acyclic graph that answers membership, obsolescence and depth
// queries.
package ontology

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCycle is returned when the is_a/part_of relations contain a cycle.
var ErrCycle = errors.New("ontology contains a cycle")

// Term is a single ontology term.
type Term struct {
	ID         string
	Name       string
	Namespace  string
	Obsolete   bool
	ReplacedBy string
	AltIDs     []string
	IsA        []string
	PartOf     []string
}

// Graph is an immutable ontology DAG. Edges point from child to parent.
type Graph struct {
	terms map[string]*Term
	alt   map[string]string // alt_id -> primary id
	nodes map[string]int64
	dag   *simple.DirectedGraph

	depth map[string]int
}

// New links terms into a DAG and checks it for cycles. Parent references
// to unknown ids are dropped from the terms.
func New(terms []*Term) (*Graph, error) {
	g := &Graph{
		terms: make(map[string]*Term, len(terms)),
		alt:   make(map[string]string),
		nodes: make(map[string]int64, len(terms)),
		dag:   simple.NewDirectedGraph(),
	}

	for _, t := range terms {
		if _, dup := g.terms[t.ID]; dup {
			return nil, fmt.Errorf("duplicate term %s", t.ID)
		}
		g.terms[t.ID] = t
		n := g.dag.NewNode()
		g.dag.AddNode(n)
		g.nodes[t.ID] = n.ID()
	}
	for _, t := range terms {
		for _, a := range t.AltIDs {
			if _, primary := g.terms[a]; !primary {
				g.alt[a] = t.ID
			}
		}
	}

	for _, t := range terms {
		t.IsA = g.knownOnly(t.IsA)
		t.PartOf = g.knownOnly(t.PartOf)
		child := g.dag.Node(g.nodes[t.ID])
		for _, parents := range [][]string{t.IsA, t.PartOf} {
			for _, p := range parents {
				if p == t.ID {
					return nil, fmt.Errorf("%w: %s is its own parent", ErrCycle, p)
				}
				g.dag.SetEdge(g.dag.NewEdge(child, g.dag.Node(g.nodes[p])))
			}
		}
	}

	if _, err := topo.Sort(g.dag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	g.depth = make(map[string]int, len(terms))
	for _, t := range terms {
		g.isADepth(t.ID)
	}

	return g, nil
}

func (g *Graph) knownOnly(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := g.terms[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// isADepth computes the longest is_a path from id to a root. The graph is
// known to be acyclic when this runs.
func (g *Graph) isADepth(id string) int {
	if d, ok := g.depth[id]; ok {
		return d
	}
	d := 0
	for _, p := range g.terms[id].IsA {
		d = max(d, g.isADepth(p)+1)
	}
	g.depth[id] = d
	return d
}

// Terms returns the primary terms sorted by id.
func (g *Graph) Terms() []*Term {
	out := make([]*Term, 0, len(g.terms))
	for _, t := range g.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of primary terms.
func (g *Graph) Len() int { return len(g.terms) }

// Contains reports whether id is a primary or alternate term id. Obsolete
// terms are members.
func (g *Graph) Contains(id string) bool {
	if _, ok := g.terms[id]; ok {
		return true
	}
	_, ok := g.alt[id]
	return ok
}

// Term returns the term for a primary or alternate id.
func (g *Graph) Term(id string) (*Term, bool) {
	if primary, ok := g.alt[id]; ok {
		id = primary
	}
	t, ok := g.terms[id]
	return t, ok
}

// IsObsolete reports whether id names an obsolete term.
func (g *Graph) IsObsolete(id string) bool {
	t, ok := g.Term(id)
	return ok && t.Obsolete
}

// Resolve maps id to the current primary term id. Alternate ids resolve
// to their primary term; obsolete terms resolve to their replaced_by term
// when it is itself current. Unknown ids and obsolete terms without a
// usable replacement do not resolve.
func (g *Graph) Resolve(id string) (string, bool) {
	t, ok := g.Term(id)
	if !ok {
		return "", false
	}
	if !t.Obsolete {
		return t.ID, true
	}
	if t.ReplacedBy == "" {
		return "", false
	}
	r, ok := g.Term(t.ReplacedBy)
	if !ok || r.Obsolete {
		return "", false
	}
	return r.ID, true
}

// Depth returns the length of the longest is_a path from id to a root,
// or -1 if id is unknown.
func (g *Graph) Depth(id string) int {
	t, ok := g.Term(id)
	if !ok {
		return -1
	}
	return g.depth[t.ID]
}
