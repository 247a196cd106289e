package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/vibe-coexp/internal/ontology"
)

// OntologyCache manages gob-serialized GO terms on disk so that the large
// OBO file is parsed only when it changes:
//
//	{dir}/ontology.gob       (serialized terms)
//	{dir}/ontology.gob.meta  (source file fingerprint)
type OntologyCache struct {
	dir string
}

// NewOntologyCache creates an ontology cache in dir.
func NewOntologyCache(dir string) *OntologyCache {
	return &OntologyCache{dir: dir}
}

func (oc *OntologyCache) gobPath() string {
	return filepath.Join(oc.dir, "ontology.gob")
}

func (oc *OntologyCache) metaPath() string {
	return filepath.Join(oc.dir, "ontology.gob.meta")
}

// Valid checks whether the cached terms match the current OBO file.
func (oc *OntologyCache) Valid(obo FileFingerprint) bool {
	meta, err := oc.readMeta()
	if err != nil {
		return false
	}
	if meta["obo_path"] != obo.Path ||
		meta["obo_size"] != strconv.FormatInt(obo.Size, 10) ||
		meta["obo_modtime"] != obo.ModTime.UTC().Format(time.RFC3339Nano) {
		return false
	}
	_, err = os.Stat(oc.gobPath())
	return err == nil
}

// Load decodes the cached terms and links them into a graph.
func (oc *OntologyCache) Load() (*ontology.Graph, error) {
	f, err := os.Open(oc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open ontology cache: %w", err)
	}
	defer f.Close()

	var terms []*ontology.Term
	if err := gob.NewDecoder(f).Decode(&terms); err != nil {
		return nil, fmt.Errorf("decode ontology cache: %w", err)
	}
	return ontology.New(terms)
}

// Write serializes the terms of g and records the OBO fingerprint.
func (oc *OntologyCache) Write(g *ontology.Graph, obo FileFingerprint) error {
	if err := os.MkdirAll(oc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(oc.gobPath())
	if err != nil {
		return fmt.Errorf("create ontology cache: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(g.Terms()); err != nil {
		f.Close()
		os.Remove(oc.gobPath())
		return fmt.Errorf("encode ontology cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ontology cache: %w", err)
	}

	return oc.writeMeta(obo)
}

// LoadOrParse returns the cached graph when it is valid for path and
// otherwise parses path and refreshes the cache. Cache write failures are
// not fatal.
func (oc *OntologyCache) LoadOrParse(path string) (g *ontology.Graph, cached bool, err error) {
	fp, err := StatFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat ontology: %w", err)
	}
	if oc.Valid(fp) {
		if g, err := oc.Load(); err == nil {
			return g, true, nil
		}
	}

	g, err = ontology.Load(path)
	if err != nil {
		return nil, false, err
	}
	if err := oc.Write(g, fp); err != nil {
		oc.Clear()
	}
	return g, false, nil
}

// Clear removes the cached files.
func (oc *OntologyCache) Clear() {
	os.Remove(oc.gobPath())
	os.Remove(oc.metaPath())
}

func (oc *OntologyCache) writeMeta(obo FileFingerprint) error {
	lines := []string{
		"obo_path=" + obo.Path,
		"obo_size=" + strconv.FormatInt(obo.Size, 10),
		"obo_modtime=" + obo.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(oc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (oc *OntologyCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(oc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
