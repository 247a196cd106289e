package correlate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/vibe-coexp/internal/expr"
)

// Direction selects which sign of correlation passes a Filter.
type Direction int

const (
	// Absolute keeps |r| > MinR.
	Absolute Direction = iota
	// Positive keeps r > MinR.
	Positive
	// Negative keeps r < -MinR.
	Negative
)

func (d Direction) String() string {
	switch d {
	case Absolute:
		return "absolute"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses "absolute", "positive" or "negative".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "absolute", "abs", "":
		return Absolute, nil
	case "positive", "pos":
		return Positive, nil
	case "negative", "neg":
		return Negative, nil
	}
	return Absolute, fmt.Errorf("unknown correlation direction %q", s)
}

// Filter thresholds corrected correlation records.
type Filter struct {
	MinR      float64
	MaxFDR    float64
	Direction Direction
}

// DefaultFilter keeps pairs with |r| > 0.7 and FDR < 0.05.
func DefaultFilter() Filter {
	return Filter{MinR: 0.7, MaxFDR: 0.05, Direction: Absolute}
}

// Keep reports whether r passes the filter. Uncorrected records never pass.
func (f Filter) Keep(r Record) bool {
	if !r.Corrected() || !(r.FDR < f.MaxFDR) {
		return false
	}
	switch f.Direction {
	case Positive:
		return r.R > f.MinR
	case Negative:
		return r.R < -f.MinR
	default:
		return r.R > f.MinR || r.R < -f.MinR
	}
}

// Apply returns the records passing the filter, in input order.
func (f Filter) Apply(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if f.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Partition groups records by the organism of GeneB, preserving order.
func Partition(records []Record) map[expr.Organism][]Record {
	out := make(map[expr.Organism][]Record)
	for _, r := range records {
		out[r.ClassB] = append(out[r.ClassB], r)
	}
	return out
}

// StudySet returns the sorted, unique GeneB identifiers of records whose
// GeneB belongs to class.
func StudySet(records []Record, class expr.Organism) []string {
	seen := make(map[string]bool)
	var genes []string
	for _, r := range records {
		if r.ClassB != class || seen[r.GeneB] {
			continue
		}
		seen[r.GeneB] = true
		genes = append(genes, r.GeneB)
	}
	sort.Strings(genes)
	return genes
}
