package ontology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	gzip "github.com/klauspost/pgzip"
)

// Load reads an OBO file, gzipped or plain, and builds its Graph.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	g, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// Parse reads OBO 1.2 [Term] stanzas. Only the tags needed for term
// validation and depth are kept: id, name, namespace, alt_id, is_a,
// relationship: part_of, is_obsolete and replaced_by.
func Parse(r io.Reader) (*Graph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		terms      []*Term
		cur        *Term
		inTerm     bool
		lineNumber int
	)
	flush := func() error {
		if cur != nil {
			if cur.ID == "" {
				return fmt.Errorf("term stanza ending at line %d has no id", lineNumber)
			}
			terms = append(terms, cur)
		}
		cur = nil
		return nil
	}

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if err := flush(); err != nil {
				return nil, err
			}
			inTerm = line == "[Term]"
			if inTerm {
				cur = &Term{}
			}
			continue
		}
		if !inTerm {
			continue
		}

		tag, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = stripTrailing(strings.TrimSpace(value))

		switch tag {
		case "id":
			cur.ID = value
		case "name":
			cur.Name = value
		case "namespace":
			cur.Namespace = value
		case "alt_id":
			cur.AltIDs = append(cur.AltIDs, value)
		case "is_a":
			cur.IsA = append(cur.IsA, value)
		case "relationship":
			rel, target, ok := strings.Cut(value, " ")
			if ok && rel == "part_of" {
				cur.PartOf = append(cur.PartOf, strings.TrimSpace(target))
			}
		case "is_obsolete":
			cur.Obsolete = value == "true"
		case "replaced_by":
			cur.ReplacedBy = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ontology: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return New(terms)
}

// stripTrailing removes a trailing "! comment" and "{qualifier}" block
// from an OBO tag value.
func stripTrailing(v string) string {
	if i := strings.Index(v, " !"); i >= 0 {
		v = v[:i]
	}
	if i := strings.Index(v, " {"); i >= 0 && strings.HasSuffix(v, "}") {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
