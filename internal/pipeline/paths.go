// Package pipeline runs the per-gene analysis stages: fetching variants
// and their population, regulatory, phenotype, and structural evidence,
// then integrating everything into one master table and report.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths lays out the data directory a run reads and writes.
//
//	raw/         unprocessed API payloads
//	processed/   intermediate per-stage tables
//	outputs/     final tables and the report
//	structures/  downloaded PDB files
type Paths struct {
	Root string
}

func NewPaths(root string) Paths {
	return Paths{Root: root}
}

func (p Paths) Raw() string        { return filepath.Join(p.Root, "raw") }
func (p Paths) Processed() string  { return filepath.Join(p.Root, "processed") }
func (p Paths) Outputs() string    { return filepath.Join(p.Root, "outputs") }
func (p Paths) Structures() string { return filepath.Join(p.Root, "structures") }
func (p Paths) CacheDir() string   { return filepath.Join(p.Root, "cache") }

func (p Paths) GeneProfile() string   { return filepath.Join(p.Processed(), "current_gene.json") }
func (p Paths) GeneInfo() string      { return filepath.Join(p.Raw(), "gene_info.json") }
func (p Paths) VariantsBasic() string { return filepath.Join(p.Processed(), "variants_basic.csv") }
func (p Paths) VariantStats() string  { return filepath.Join(p.Processed(), "variant_stats.json") }
func (p Paths) VariantsWithFrequencies() string {
	return filepath.Join(p.Processed(), "variants_with_frequencies.csv")
}
func (p Paths) FrequencyStats() string { return filepath.Join(p.Processed(), "frequency_stats.json") }
func (p Paths) EQTLStats() string      { return filepath.Join(p.Processed(), "eqtl_stats.json") }
func (p Paths) GWASStats() string      { return filepath.Join(p.Processed(), "gwas_stats.json") }
func (p Paths) AnnotationStats() string {
	return filepath.Join(p.Processed(), "annotation_stats.json")
}

func (p Paths) EQTLAssociations() string { return filepath.Join(p.Outputs(), "eqtl_associations.csv") }
func (p Paths) PQTLAssociations() string { return filepath.Join(p.Outputs(), "pqtl_associations.csv") }
func (p Paths) GWASAssociations() string { return filepath.Join(p.Outputs(), "gwas_associations.csv") }
func (p Paths) VariantsAnnotated() string {
	return filepath.Join(p.Outputs(), "variants_annotated.csv")
}
func (p Paths) DomainMapping() string {
	return filepath.Join(p.Outputs(), "variant_protein_mapping.csv")
}
func (p Paths) MasterTable() string   { return filepath.Join(p.Outputs(), "master_integrated.csv") }
func (p Paths) SummaryStats() string  { return filepath.Join(p.Outputs(), "summary_stats.json") }
func (p Paths) SummaryReport() string { return filepath.Join(p.Outputs(), "summary_report.txt") }
func (p Paths) PLDDTScores() string   { return filepath.Join(p.Outputs(), "plddt_scores.csv") }

func (p Paths) StructurePDB(accession string) string {
	return filepath.Join(p.Structures(), accession+".pdb")
}

func (p Paths) LockFile() string { return filepath.Join(p.Root, ".genescout.lock") }

// EnsureDirs creates the full directory layout.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Raw(), p.Processed(), p.Outputs(), p.Structures(), p.CacheDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	return nil
}
