package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-coexp/internal/correlate"
	"github.com/inodb/vibe-coexp/internal/enrich"
	"github.com/inodb/vibe-coexp/internal/expr"
)

// StoredCorrelation is a correlation record tagged with its run.
type StoredCorrelation struct {
	RunID string
	correlate.Record
}

// withAppender runs fn with a DuckDB Appender on table and flushes it.
func (s *Store) withAppender(table string, fn func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteCorrelations batch-inserts the records of a run using the Appender
// API. Uncorrected records store NULL fdr and pool.
func (s *Store) WriteCorrelations(runID string, records []correlate.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.withAppender("correlation_results", func(a *goduckdb.Appender) error {
		for _, r := range records {
			var fdr, pool driver.Value
			if r.Corrected() {
				fdr, pool = r.FDR, r.Pool
			}
			if err := a.AppendRow(
				runID, r.GeneA, r.GeneB, r.ClassB.String(),
				r.R, r.P, fdr, int64(r.N), pool,
			); err != nil {
				return fmt.Errorf("append correlation %s/%s: %w", r.GeneA, r.GeneB, err)
			}
		}
		return nil
	})
}

// WriteEnrichment batch-inserts the term results of a run.
func (s *Store) WriteEnrichment(runID string, results []enrich.Result) error {
	if len(results) == 0 {
		return nil
	}
	return s.withAppender("enrichment_results", func(a *goduckdb.Appender) error {
		for _, r := range results {
			if err := a.AppendRow(
				runID, r.GOID, r.Name, r.Namespace, int64(r.Depth), r.Enrichment,
				int64(r.StudyCount), int64(r.StudyTotal),
				int64(r.PopulationCount), int64(r.PopulationTotal),
				r.P, r.TwoSidedP, r.FDR, r.Reject,
				strings.Join(r.StudyGenes, ","),
			); err != nil {
				return fmt.Errorf("append enrichment %s: %w", r.GOID, err)
			}
		}
		return nil
	})
}

// CorrelationsForGene returns every stored record in which gene takes
// part on either side, across all runs.
func (s *Store) CorrelationsForGene(gene string) ([]StoredCorrelation, error) {
	rows, err := s.db.Query(`SELECT
		run_id, gene_a, gene_b, class, r, p, fdr, n_samples, pool
		FROM correlation_results
		WHERE gene_a=? OR gene_b=?
		ORDER BY run_id, gene_a, gene_b`, gene, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	var out []StoredCorrelation
	for rows.Next() {
		var (
			sc    StoredCorrelation
			class string
			n     int64
			fdr   sql.NullFloat64
			pool  sql.NullString
		)
		if err := rows.Scan(&sc.RunID, &sc.GeneA, &sc.GeneB, &class,
			&sc.R, &sc.P, &fdr, &n, &pool); err != nil {
			return nil, fmt.Errorf("scan correlation: %w", err)
		}
		if sc.ClassB, err = expr.ParseOrganism(class); err != nil {
			return nil, fmt.Errorf("scan correlation: %w", err)
		}
		sc.N = int(n)
		if pool.Valid {
			sc.Pool = pool.String
			sc.FDR = fdr.Float64
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correlations: %w", err)
	}
	return out, nil
}

// TopTerms returns up to limit enrichment results of a run ranked by FDR,
// raw p-value and GO id. A limit of 0 or less returns all results.
func (s *Store) TopTerms(runID string, limit int) ([]enrich.Result, error) {
	query := `SELECT
		go_id, name, namespace, depth, enrichment,
		study_count, study_total, pop_count, pop_total,
		p, p_two_sided, fdr, reject, study_genes
		FROM enrichment_results
		WHERE run_id=?
		ORDER BY fdr, p, go_id`
	args := []any{runID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var out []enrich.Result
	for rows.Next() {
		var r enrich.Result
		var depth, k, n, kk, nn int64
		var genes string
		if err := rows.Scan(&r.GOID, &r.Name, &r.Namespace, &depth, &r.Enrichment,
			&k, &n, &kk, &nn, &r.P, &r.TwoSidedP, &r.FDR, &r.Reject, &genes); err != nil {
			return nil, fmt.Errorf("scan enrichment: %w", err)
		}
		r.Depth = int(depth)
		r.StudyCount, r.StudyTotal = int(k), int(n)
		r.PopulationCount, r.PopulationTotal = int(kk), int(nn)
		if genes != "" {
			r.StudyGenes = strings.Split(genes, ",")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrichment: %w", err)
	}
	return out, nil
}
