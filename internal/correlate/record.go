// Package correlate computes masked Pearson correlations between viral
// genes and every other gene of an expression matrix, corrects them for
// multiple testing and filters them into study sets.
package correlate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/vibe-coexp/internal/expr"
)

// MinJointSamples is the minimum number of samples in which both genes of
// a pair must be nonzero for the pair to be tested.
const MinJointSamples = 3

// TotalViralLoad is the GeneA identifier of records correlating a host
// gene with the summed expression of all viral genes.
const TotalViralLoad = "viral_total"

// Correction pool names stored on corrected records.
const (
	PoolNameCombined   = "combined"
	PoolNameVirusHost  = "virus_host"
	PoolNameVirusVirus = "virus_virus"
	PoolNameTotalLoad  = "total_load"
)

// Record is the correlation between two genes over their jointly nonzero
// samples.
type Record struct {
	GeneA  string
	GeneB  string
	ClassB expr.Organism
	R      float64
	P      float64
	FDR    float64 // valid once Pool is set
	N      int     // number of jointly nonzero samples
	Pool   string  // correction pool, empty until corrected
}

// Corrected reports whether the record carries an FDR value.
func (r Record) Corrected() bool { return r.Pool != "" }

// PoolMode selects how correlation p-values are grouped for correction.
type PoolMode int

const (
	// PoolCombined corrects virus-host and virus-virus pairs as one pool.
	PoolCombined PoolMode = iota
	// PoolSeparate corrects virus-host and virus-virus pairs independently.
	PoolSeparate
)

func (m PoolMode) String() string {
	switch m {
	case PoolCombined:
		return "combined"
	case PoolSeparate:
		return "separate"
	}
	return fmt.Sprintf("PoolMode(%d)", int(m))
}

// ParsePoolMode parses "combined" or "separate".
func ParsePoolMode(s string) (PoolMode, error) {
	switch strings.ToLower(s) {
	case "combined", "":
		return PoolCombined, nil
	case "separate":
		return PoolSeparate, nil
	}
	return PoolCombined, fmt.Errorf("unknown correction pool mode %q (want combined or separate)", s)
}

// poolFor returns the name of the correction pool r belongs to.
func (m PoolMode) poolFor(r Record) string {
	if r.GeneA == TotalViralLoad {
		return PoolNameTotalLoad
	}
	if m == PoolSeparate {
		if r.ClassB == expr.Viral {
			return PoolNameVirusVirus
		}
		return PoolNameVirusHost
	}
	return PoolNameCombined
}

// SortRecords orders records by GeneA then GeneB.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].GeneA != records[j].GeneA {
			return records[i].GeneA < records[j].GeneA
		}
		return records[i].GeneB < records[j].GeneB
	})
}
