package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-coexp/internal/enrich"
)

// EnrichmentWriter writes GO enrichment results in a goatools-style
// tab-delimited layout with an extra two-sided p-value column.
type EnrichmentWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewEnrichmentWriter creates a new enrichment table writer.
func NewEnrichmentWriter(w io.Writer) *EnrichmentWriter {
	return &EnrichmentWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"GO",
			"NS",
			"enrichment",
			"name",
			"ratio_in_study",
			"ratio_in_pop",
			"p_uncorrected",
			"depth",
			"study_count",
			"p_fdr_bh",
			"study_items",
			"p_two_sided",
		},
	}
}

// WriteHeader writes the header line.
func (ew *EnrichmentWriter) WriteHeader() error {
	_, err := ew.w.WriteString(strings.Join(ew.columns, "\t") + "\n")
	return err
}

// Write writes a single term result.
func (ew *EnrichmentWriter) Write(r enrich.Result) error {
	name := r.Name
	if name == "" {
		name = NA
	}
	depth := NA
	if r.Depth >= 0 {
		depth = strconv.Itoa(r.Depth)
	}
	values := []string{
		r.GOID,
		namespaceCode(r.Namespace),
		r.Enrichment,
		name,
		fmt.Sprintf("%d/%d", r.StudyCount, r.StudyTotal),
		fmt.Sprintf("%d/%d", r.PopulationCount, r.PopulationTotal),
		formatFloat(r.P),
		depth,
		strconv.Itoa(r.StudyCount),
		formatFloat(r.FDR),
		strings.Join(r.StudyGenes, ", "),
		formatFloat(r.TwoSidedP),
	}
	_, err := ew.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteReport writes the header and every result of rep in rank order.
func (ew *EnrichmentWriter) WriteReport(rep *enrich.Report) error {
	if err := ew.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rep.Results {
		if err := ew.Write(r); err != nil {
			return err
		}
	}
	return ew.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (ew *EnrichmentWriter) Flush() error {
	return ew.w.Flush()
}

// namespaceCode abbreviates a GO namespace the way goatools does.
func namespaceCode(ns string) string {
	switch ns {
	case "biological_process":
		return "BP"
	case "molecular_function":
		return "MF"
	case "cellular_component":
		return "CC"
	case "":
		return NA
	}
	return ns
}
