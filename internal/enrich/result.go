// Package enrich tests GO term over-representation in a study gene set
// against a background universe with the hypergeometric distribution.
package enrich

import (
	"fmt"
	"sort"
	"strings"
)

// UniversePolicy selects which genes form the background population.
type UniversePolicy int

const (
	// UniverseAll uses every gene present in the annotation sources,
	// including genes with no validated term.
	UniverseAll UniversePolicy = iota
	// UniverseAnnotated restricts the universe and the study set to genes
	// with at least one validated term.
	UniverseAnnotated
)

func (p UniversePolicy) String() string {
	switch p {
	case UniverseAll:
		return "all"
	case UniverseAnnotated:
		return "annotated"
	default:
		return fmt.Sprintf("UniversePolicy(%d)", int(p))
	}
}

// ParseUniversePolicy parses "all" or "annotated".
func ParseUniversePolicy(s string) (UniversePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return UniverseAll, nil
	case "annotated":
		return UniverseAnnotated, nil
	default:
		return 0, fmt.Errorf("unknown universe policy %q (want all or annotated)", s)
	}
}

// Result is the outcome of testing one GO term.
type Result struct {
	GOID      string
	Name      string
	Namespace string
	Depth     int

	// Enrichment is "e" when the study ratio exceeds the population ratio
	// and "p" (purified) otherwise.
	Enrichment string

	StudyCount      int
	StudyTotal      int
	PopulationCount int
	PopulationTotal int

	P         float64 // one-sided P(X >= StudyCount)
	TwoSidedP float64 // Fisher exact, reported only
	FDR       float64
	Reject    bool

	StudyGenes []string
}

// Report holds every tested term, ranked.
type Report struct {
	Results      []Result
	Alpha        float64
	UniverseSize int
	StudySize    int
	Policy       UniversePolicy
}

// Significant returns the results with FDR below alpha, in rank order.
func (r *Report) Significant() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.FDR < r.Alpha {
			out = append(out, res)
		}
	}
	return out
}

// SortResults ranks results by FDR, then raw p-value, then GO id.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FDR != b.FDR {
			return a.FDR < b.FDR
		}
		if a.P != b.P {
			return a.P < b.P
		}
		return a.GOID < b.GOID
	})
}

func enrichmentLabel(studyCount, studyTotal, popCount, popTotal int) string {
	// Compare k/n > K/N without division.
	if studyCount*popTotal > popCount*studyTotal {
		return "e"
	}
	return "p"
}
