// Package store joins the per-stage CSV outputs into one master variant
// table using DuckDB, and computes the aggregates that feed the summary
// report.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Table names the stage outputs load into.
const (
	TableVariants    = "variants"
	TableEQTL        = "eqtls"
	TableGWAS        = "gwas"
	TableAnnotations = "annotations"
	TableDomains     = "domains"
)

// Store manages a DuckDB connection for data integration.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates empty stage tables so the master join never
// references a missing relation when a stage was skipped.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS variants (
			variant_id VARCHAR,
			chr VARCHAR,
			"start" BIGINT,
			"end" BIGINT,
			strand INTEGER,
			alleles VARCHAR,
			minor_allele VARCHAR,
			maf DOUBLE,
			consequence_type VARCHAR,
			clinical_significance VARCHAR,
			source VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS eqtls (
			variant_id VARCHAR,
			rsid VARCHAR,
			gene_id VARCHAR,
			tissue VARCHAR,
			pvalue DOUBLE,
			nes DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS gwas (
			variant_id VARCHAR,
			chr VARCHAR,
			pos BIGINT,
			trait VARCHAR,
			pvalue DOUBLE,
			study VARCHAR,
			location VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			variant_id VARCHAR,
			input_coords VARCHAR,
			most_severe_consequence VARCHAR,
			sift VARCHAR,
			polyphen VARCHAR,
			amino_acids VARCHAR,
			codons VARCHAR,
			protein_start BIGINT,
			protein_end BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS domains (
			variant_id VARCHAR,
			input_coords VARCHAR,
			consequence VARCHAR,
			protein_position BIGINT,
			amino_acid_change VARCHAR,
			codon_change VARCHAR,
			domain_affected VARCHAR,
			domain_start VARCHAR,
			domain_end VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadCSV replaces a stage table with the contents of a CSV file and
// returns the row count. The table must be one of the stage table names.
func (s *Store) LoadCSV(table, path string) (int64, error) {
	if !validTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	query := fmt.Sprintf(
		`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s, header = true)`,
		table, sqlString(path))
	if _, err := s.db.Exec(query); err != nil {
		return 0, fmt.Errorf("load %s from %s: %w", table, path, err)
	}

	var n int64
	if err := s.db.QueryRow(fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func validTable(table string) bool {
	switch table {
	case TableVariants, TableEQTL, TableGWAS, TableAnnotations, TableDomains:
		return true
	}
	return false
}

// frequencyColumns are present only when the frequencies stage ran; the
// master query references them, so pad the variants table when absent.
var frequencyColumns = []struct{ name, typ string }{
	{"gnomad_af_genome", "DOUBLE"},
	{"gnomad_ac_genome", "BIGINT"},
	{"gnomad_an_genome", "BIGINT"},
	{"gnomad_hom_genome", "BIGINT"},
	{"gnomad_af_exome", "DOUBLE"},
	{"gnomad_ac_exome", "BIGINT"},
	{"gnomad_an_exome", "BIGINT"},
	{"gnomad_hom_exome", "BIGINT"},
}

// BuildMaster assembles the master table: one row per variant, left-joined
// with eQTL, GWAS, VEP annotation, and domain-hit summaries.
func (s *Store) BuildMaster() error {
	for _, col := range frequencyColumns {
		stmt := fmt.Sprintf(`ALTER TABLE variants ADD COLUMN IF NOT EXISTS %s %s`, col.name, col.typ)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("pad variants table: %w", err)
		}
	}

	_, err := s.db.Exec(`CREATE OR REPLACE TABLE master AS
		WITH eqtl_summary AS (
			SELECT rsid,
			       string_agg(DISTINCT tissue, '|') AS eqtl_tissues,
			       min(pvalue) AS eqtl_min_pvalue,
			       first(variant_id) AS eqtl_variant_id
			FROM eqtls
			WHERE rsid IS NOT NULL AND rsid <> ''
			GROUP BY rsid
		),
		gwas_summary AS (
			SELECT variant_id,
			       string_agg(DISTINCT trait, '|') AS gwas_traits
			FROM gwas
			GROUP BY variant_id
		),
		annot_summary AS (
			SELECT variant_id,
			       first(sift) AS sift,
			       first(polyphen) AS polyphen,
			       first(amino_acids) AS amino_acids,
			       first(codons) AS codons,
			       first(protein_start) AS protein_start,
			       first(protein_end) AS protein_end
			FROM annotations
			WHERE variant_id IS NOT NULL
			GROUP BY variant_id
		),
		domain_summary AS (
			SELECT variant_id,
			       first(domain_affected) AS domain_affected,
			       first(domain_start) AS domain_start,
			       first(domain_end) AS domain_end
			FROM domains
			WHERE variant_id IS NOT NULL
			GROUP BY variant_id
		)
		SELECT v.*,
		       e.eqtl_tissues,
		       e.eqtl_min_pvalue,
		       e.eqtl_variant_id,
		       (e.rsid IS NOT NULL) AS has_eqtl,
		       g.gwas_traits,
		       (g.variant_id IS NOT NULL) AS has_gwas,
		       a.sift, a.polyphen, a.amino_acids, a.codons,
		       a.protein_start, a.protein_end,
		       d.domain_affected, d.domain_start, d.domain_end
		FROM variants v
		LEFT JOIN eqtl_summary e ON v.variant_id = e.rsid
		LEFT JOIN gwas_summary g ON v.variant_id = g.variant_id
		LEFT JOIN annot_summary a ON v.variant_id = a.variant_id
		LEFT JOIN domain_summary d ON v.variant_id = d.variant_id`)
	if err != nil {
		return fmt.Errorf("build master table: %w", err)
	}
	return nil
}

// ExportMaster writes the master table to a CSV file and returns the row
// count.
func (s *Store) ExportMaster(path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	stmt := fmt.Sprintf(`COPY master TO %s (HEADER, DELIMITER ',')`, sqlString(path))
	if _, err := s.db.Exec(stmt); err != nil {
		return 0, fmt.Errorf("export master table: %w", err)
	}
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM master`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ConsequenceCount is one consequence type with its variant count.
type ConsequenceCount struct {
	Consequence string `json:"consequence"`
	Count       int64  `json:"count"`
}

// FrequencyBuckets breaks variants down by gnomAD genome allele frequency.
type FrequencyBuckets struct {
	VeryRare     int64 `json:"very_rare"`
	Rare         int64 `json:"rare"`
	LowFrequency int64 `json:"low_frequency"`
	Common       int64 `json:"common"`
	Missing      int64 `json:"missing"`
}

// Summary holds the aggregates computed over the master table.
type Summary struct {
	TotalVariants    int64              `json:"total_variants"`
	CodingVariants   int64              `json:"coding_variants"`
	Missense         int64              `json:"missense"`
	StopGained       int64              `json:"stop_gained"`
	Frameshift       int64              `json:"frameshift"`
	WithClinical     int64              `json:"with_clinical_significance"`
	WithEQTL         int64              `json:"with_eqtl"`
	WithGWAS         int64              `json:"with_gwas"`
	MultiEvidence    int64              `json:"multi_evidence"`
	EQTLAssociations int64              `json:"eqtl_associations"`
	EQTLTissues      int64              `json:"eqtl_tissues"`
	GWASAssociations int64              `json:"gwas_associations"`
	TopConsequences  []ConsequenceCount `json:"top_consequence_types"`
	Frequencies      FrequencyBuckets   `json:"frequency_breakdown"`
}

// Summarize computes report aggregates. BuildMaster must have run first.
func (s *Store) Summarize() (*Summary, error) {
	sum := &Summary{}

	err := s.db.QueryRow(`SELECT
			count(*),
			count(*) FILTER (WHERE regexp_matches(coalesce(consequence_type, ''), 'missense|nonsense|frameshift')),
			count(*) FILTER (WHERE coalesce(consequence_type, '') LIKE '%missense%'),
			count(*) FILTER (WHERE coalesce(consequence_type, '') LIKE '%stop_gained%'),
			count(*) FILTER (WHERE coalesce(consequence_type, '') LIKE '%frameshift%'),
			count(*) FILTER (WHERE coalesce(clinical_significance, '') <> ''),
			count(*) FILTER (WHERE has_eqtl),
			count(*) FILTER (WHERE has_gwas),
			count(*) FILTER (WHERE has_eqtl AND has_gwas),
			count(*) FILTER (WHERE gnomad_af_genome IS NOT NULL AND gnomad_af_genome < 0.001),
			count(*) FILTER (WHERE gnomad_af_genome >= 0.001 AND gnomad_af_genome < 0.01),
			count(*) FILTER (WHERE gnomad_af_genome >= 0.01 AND gnomad_af_genome < 0.05),
			count(*) FILTER (WHERE gnomad_af_genome >= 0.05),
			count(*) FILTER (WHERE gnomad_af_genome IS NULL)
		FROM master`).Scan(
		&sum.TotalVariants, &sum.CodingVariants,
		&sum.Missense, &sum.StopGained, &sum.Frameshift,
		&sum.WithClinical, &sum.WithEQTL, &sum.WithGWAS, &sum.MultiEvidence,
		&sum.Frequencies.VeryRare, &sum.Frequencies.Rare,
		&sum.Frequencies.LowFrequency, &sum.Frequencies.Common,
		&sum.Frequencies.Missing)
	if err != nil {
		return nil, fmt.Errorf("summarize master table: %w", err)
	}

	err = s.db.QueryRow(`SELECT count(*), count(DISTINCT tissue) FROM eqtls`).
		Scan(&sum.EQTLAssociations, &sum.EQTLTissues)
	if err != nil {
		return nil, fmt.Errorf("summarize eqtls: %w", err)
	}
	if err := s.db.QueryRow(`SELECT count(*) FROM gwas`).Scan(&sum.GWASAssociations); err != nil {
		return nil, fmt.Errorf("summarize gwas: %w", err)
	}

	rows, err := s.db.Query(`SELECT c, count(*) AS n
		FROM (
			SELECT trim(unnest(string_split(consequence_type, '|'))) AS c
			FROM master
			WHERE consequence_type IS NOT NULL
		)
		WHERE c <> ''
		GROUP BY c
		ORDER BY n DESC, c
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("count consequence types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc ConsequenceCount
		if err := rows.Scan(&cc.Consequence, &cc.Count); err != nil {
			return nil, err
		}
		sum.TopConsequences = append(sum.TopConsequences, cc)
	}
	return sum, rows.Err()
}

// sqlString quotes a string literal for inlining into a statement that
// does not accept bind parameters, like COPY and read_csv.
func sqlString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
