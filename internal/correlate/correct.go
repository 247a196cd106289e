package correlate

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-coexp/internal/stats"
)

// Correct assigns Benjamini-Hochberg FDR values to records in place. The
// pool mode decides which records share a correction; total viral load
// records always form their own pool. It returns the number of records
// in each pool. An empty record set is left untouched.
func Correct(records []Record, mode PoolMode, alpha float64) (map[string]int, error) {
	pools := make(map[string][]int)
	for i, r := range records {
		name := mode.poolFor(r)
		pools[name] = append(pools[name], i)
	}

	names := make([]string, 0, len(pools))
	for name := range pools {
		names = append(names, name)
	}
	sort.Strings(names)

	sizes := make(map[string]int, len(pools))
	for _, name := range names {
		idx := pools[name]
		pvals := make([]float64, len(idx))
		for k, i := range idx {
			pvals[k] = records[i].P
		}

		c, err := stats.BenjaminiHochberg(pvals, alpha)
		if err != nil {
			return nil, fmt.Errorf("correct %s pool: %w", name, err)
		}
		for k, i := range idx {
			records[i].FDR = c.Adjusted[k]
			records[i].Pool = name
		}
		sizes[name] = len(idx)
	}

	return sizes, nil
}
