package expr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gzip "github.com/klauspost/pgzip"
)

// Load reads a gene-by-sample TSV matrix from path. Gzipped files are
// detected by their magic bytes. Use "-" to read stdin.
func Load(path string, classify Classifier) (*Matrix, error) {
	if path == "-" {
		return Read(os.Stdin, classify)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open expression matrix: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r, classify)
}

// Read parses a TSV whose header holds a label cell followed by sample
// names, and whose rows hold a gene identifier followed by one value per
// sample.
func Read(r io.Reader, classify Classifier) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var (
		samples    []string
		genes      []string
		rows       [][]float64
		lineNumber int
	)

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if samples == nil {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: header has no sample columns", ErrInvalidMatrix)
			}
			samples = fields[1:]
			continue
		}

		if len(fields) != len(samples)+1 {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrInvalidMatrix, lineNumber, len(fields), len(samples)+1)
		}
		values := make([]float64, len(samples))
		for j, s := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v",
					ErrInvalidMatrix, lineNumber, samples[j], err)
			}
			values[j] = v
		}
		genes = append(genes, strings.TrimSpace(fields[0]))
		rows = append(rows, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan expression matrix: %w", err)
	}
	if samples == nil {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidMatrix)
	}

	return NewMatrix(samples, genes, rows, classify)
}
