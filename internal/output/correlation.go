// Package output writes and reads the tab-delimited result tables.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/expr"
)

// NA marks a missing value.
const NA = "NA"

var correlationColumns = []string{
	"gene_1",
	"gene_2",
	"class",
	"pearson_r",
	"p_value",
	"fdr",
	"n_samples",
	"pool",
}

// CorrelationWriter writes correlation records in tab-delimited format.
type CorrelationWriter struct {
	w *bufio.Writer
}

// NewCorrelationWriter creates a new correlation table writer.
func NewCorrelationWriter(w io.Writer) *CorrelationWriter {
	return &CorrelationWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (cw *CorrelationWriter) WriteHeader() error {
	_, err := cw.w.WriteString(strings.Join(correlationColumns, "\t") + "\n")
	return err
}

// Write writes a single record. Uncorrected records get NA for fdr and pool.
func (cw *CorrelationWriter) Write(r correlate.Record) error {
	fdr, pool := NA, NA
	if r.Corrected() {
		fdr = formatFloat(r.FDR)
		pool = r.Pool
	}
	values := []string{
		r.GeneA,
		r.GeneB,
		r.ClassB.String(),
		formatFloat(r.R),
		formatFloat(r.P),
		fdr,
		strconv.Itoa(r.N),
		pool,
	}
	_, err := cw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header and then every record, sorted by gene pair.
// records is sorted in place.
func (cw *CorrelationWriter) WriteAll(records []correlate.Record) error {
	correlate.SortRecords(records)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CorrelationWriter) Flush() error {
	return cw.w.Flush()
}

// ReadCorrelations parses a table written by CorrelationWriter. Columns
// are located by header name so extra columns are tolerated.
func ReadCorrelations(r io.Reader) ([]correlate.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan correlation header: %w", err)
		}
		return nil, fmt.Errorf("correlation table is empty")
	}
	idx := make(map[string]int)
	for i, h := range strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t") {
		idx[h] = i
	}
	for _, col := range correlationColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("correlation table missing column %q", col)
		}
	}

	var records []correlate.Record
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < len(idx) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, len(idx), len(fields))
		}
		rec, err := parseCorrelation(fields, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan correlation rows: %w", err)
	}
	return records, nil
}

func parseCorrelation(fields []string, idx map[string]int) (correlate.Record, error) {
	get := func(col string) string { return fields[idx[col]] }

	class, err := expr.ParseOrganism(get("class"))
	if err != nil {
		return correlate.Record{}, err
	}
	rec := correlate.Record{GeneA: get("gene_1"), GeneB: get("gene_2"), ClassB: class}
	if rec.R, err = strconv.ParseFloat(get("pearson_r"), 64); err != nil {
		return rec, fmt.Errorf("parse pearson_r: %w", err)
	}
	if rec.P, err = strconv.ParseFloat(get("p_value"), 64); err != nil {
		return rec, fmt.Errorf("parse p_value: %w", err)
	}
	if rec.N, err = strconv.Atoi(get("n_samples")); err != nil {
		return rec, fmt.Errorf("parse n_samples: %w", err)
	}
	if pool := get("pool"); pool != NA && pool != "" {
		rec.Pool = pool
		if rec.FDR, err = strconv.ParseFloat(get("fdr"), 64); err != nil {
			return rec, fmt.Errorf("parse fdr: %w", err)
		}
	}
	return rec, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
