package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/enrich"
)

// Summary collects run counts for the human-readable report printed to
// stderr at the end of a run.
type Summary struct {
	Pairs    int
	Skipped  int
	Constant int
	Records  []correlate.Record
	Kept     int
	Dropped  int // study genes outside the universe
	Report   *enrich.Report
}

// WriteSummary writes the counts to w. Sections without data are left out.
func (s *Summary) WriteSummary(w io.Writer) {
	if s.Pairs > 0 {
		s.writeCorrelation(w)
	}
	if s.Report != nil {
		s.writeEnrichment(w)
	}
}

func (s *Summary) writeCorrelation(w io.Writer) {
	fmt.Fprintf(w, "\nCorrelation Summary (%d pairs):\n", s.Pairs)
	fmt.Fprintf(w, "    %-20s%d\n", "tested", len(s.Records))
	fmt.Fprintf(w, "    %-20s%d\n", "skipped", s.Skipped)
	fmt.Fprintf(w, "    %-20s%d\n", "constant", s.Constant)
	fmt.Fprintf(w, "    %-20s%d\n", "passed_filter", s.Kept)

	pools := make(map[string]int)
	for _, r := range s.Records {
		if r.Corrected() {
			pools[r.Pool]++
		}
	}
	if len(pools) > 0 {
		type poolCount struct {
			pool  string
			count int
		}
		var sorted []poolCount
		for p, n := range pools {
			sorted = append(sorted, poolCount{p, n})
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].count != sorted[j].count {
				return sorted[i].count > sorted[j].count
			}
			return sorted[i].pool < sorted[j].pool
		})
		fmt.Fprintf(w, "\n  Correction pools:\n")
		for _, pc := range sorted {
			fmt.Fprintf(w, "    %-20s%d\n", pc.pool, pc.count)
		}
	}
}

func (s *Summary) writeEnrichment(w io.Writer) {
	fmt.Fprintf(w, "\nEnrichment Summary (universe %d, study %d, policy %s):\n",
		s.Report.UniverseSize, s.Report.StudySize, s.Report.Policy)
	fmt.Fprintf(w, "    %-20s%d\n", "study_dropped", s.Dropped)
	fmt.Fprintf(w, "    %-20s%d\n", "terms_tested", len(s.Report.Results))
	fmt.Fprintf(w, "    %-20s%d\n", "significant", len(s.Report.Significant()))
}
