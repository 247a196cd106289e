package annotation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Default column names of the merged annotation table.
const (
	DefaultGeneColumn = "locus"
	DefaultTermColumn = "GO_terms"
)

// Row is one gene with its raw, delimiter-joined GO annotation text.
type Row struct {
	Gene  string
	Terms string
}

var goIDPattern = regexp.MustCompile(`GO:\d{7}`)

// ExtractTermIDs splits raw on ';' and returns every GO id found in each
// token, in order of appearance. Descriptive text around the ids, such as
// "protein kinase activity [GO:0004672]", is discarded.
func ExtractTermIDs(raw string) []string {
	var ids []string
	for _, token := range strings.Split(raw, ";") {
		ids = append(ids, goIDPattern.FindAllString(token, -1)...)
	}
	return ids
}

// LoadRows reads annotation rows from a TSV file.
func LoadRows(path, geneCol, termCol string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f, geneCol, termCol)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadRows reads a headered TSV and returns one Row per gene identifier.
// A gene cell holding several whitespace-separated identifiers yields one
// Row per identifier, all sharing the term text. Rows with an empty term
// cell are kept since they still place the gene in the universe.
func ReadRows(r io.Reader, geneCol, termCol string) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan annotation header: %w", err)
		}
		return nil, fmt.Errorf("annotation table is empty")
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	geneIdx, termIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case geneCol:
			geneIdx = i
		case termCol:
			termIdx = i
		}
	}
	if geneIdx < 0 || termIdx < 0 {
		return nil, fmt.Errorf("annotation header must contain %q and %q columns", geneCol, termCol)
	}

	var rows []Row
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if geneIdx >= len(fields) {
			continue
		}
		terms := ""
		if termIdx < len(fields) {
			terms = strings.TrimSpace(fields[termIdx])
		}
		for _, gene := range strings.Fields(fields[geneIdx]) {
			rows = append(rows, Row{Gene: gene, Terms: terms})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan annotation rows: %w", err)
	}

	return rows, nil
}
