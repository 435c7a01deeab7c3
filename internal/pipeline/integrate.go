package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/store"
)

// Integrate joins the stage tables into outputs/master_integrated.csv and
// writes the summary statistics and report. The variant table is required;
// every other table is optional and left empty when its stage was skipped.
func (r *Runner) Integrate(ctx context.Context) error {
	variantsCSV := r.paths.VariantsWithFrequencies()
	if _, err := os.Stat(variantsCSV); err != nil {
		variantsCSV = r.paths.VariantsBasic()
	}
	if err := requireFile(variantsCSV, "genescout fetch variants"); err != nil {
		return err
	}

	db, err := store.Open("")
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.LoadCSV(store.TableVariants, variantsCSV); err != nil {
		return err
	}
	for _, src := range []struct{ table, path string }{
		{store.TableEQTL, r.paths.EQTLAssociations()},
		{store.TableGWAS, r.paths.GWASAssociations()},
		{store.TableAnnotations, r.paths.VariantsAnnotated()},
		{store.TableDomains, r.paths.DomainMapping()},
	} {
		if _, statErr := os.Stat(src.path); statErr != nil {
			r.logger.Warn("stage table missing, integrating without it",
				zap.String("table", src.table), zap.String("path", src.path))
			continue
		}
		if _, err := db.LoadCSV(src.table, src.path); err != nil {
			return err
		}
	}

	if err := db.BuildMaster(); err != nil {
		return err
	}
	n, err := db.ExportMaster(r.paths.MasterTable())
	if err != nil {
		return err
	}

	summary, err := db.Summarize()
	if err != nil {
		return err
	}

	stats := map[string]any{
		"gene_symbol":           r.profile.Symbol,
		"gene_id":               r.profile.EnsemblID,
		"analysis_date":         time.Now().Format(time.RFC3339),
		"total_variants":        summary.TotalVariants,
		"coding_variants":       summary.CodingVariants,
		"with_eqtl":             summary.WithEQTL,
		"with_gwas":             summary.WithGWAS,
		"clinical_significance": summary.WithClinical,
		"top_consequence_types": summary.TopConsequences,
		"frequency_breakdown":   summary.Frequencies,
	}
	if err := writeJSONFile(r.paths.SummaryStats(), stats); err != nil {
		return err
	}
	if err := os.WriteFile(r.paths.SummaryReport(), []byte(r.renderReport(summary)), 0644); err != nil {
		return fmt.Errorf("write summary report: %w", err)
	}

	r.logger.Info("master table written",
		zap.Int64("variants", n), zap.String("path", r.paths.MasterTable()))
	return nil
}

func (r *Runner) renderReport(s *store.Summary) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80) + "\n"
	section := func(title string) {
		b.WriteString(rule)
		b.WriteString(title + "\n")
		b.WriteString(rule)
	}
	line := func(label string, v int64) {
		fmt.Fprintf(&b, "%-35s%d\n", label+":", v)
	}

	section("GENE MUTATION AND QTL ANALYSIS SUMMARY REPORT")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Gene: %s (%s)\n", r.profile.Symbol, r.profile.EnsemblID)
	fmt.Fprintf(&b, "Analysis Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	section("OVERVIEW")
	line("Total Variants Found", s.TotalVariants)
	line("Coding Variants", s.CodingVariants)
	line("Non-coding Variants", s.TotalVariants-s.CodingVariants)
	line("With Clinical Significance", s.WithClinical)
	b.WriteString("\n")

	section("TOP VARIANT CONSEQUENCE TYPES")
	for _, c := range s.TopConsequences {
		fmt.Fprintf(&b, "%-45s %6d\n", c.Consequence, c.Count)
	}
	b.WriteString("\n")

	section("VARIANT FREQUENCIES (gnomAD)")
	line("Common (>5%)", s.Frequencies.Common)
	line("Low Frequency (1%-5%)", s.Frequencies.LowFrequency)
	line("Rare (0.1%-1%)", s.Frequencies.Rare)
	line("Very Rare (<0.1%)", s.Frequencies.VeryRare)
	line("Unknown/Missing", s.Frequencies.Missing)
	b.WriteString("\n")

	section("REGULATORY EFFECTS")
	line("Variants with eQTL", s.WithEQTL)
	line("Total eQTL Associations", s.EQTLAssociations)
	line("Tissues with eQTLs", s.EQTLTissues)
	b.WriteString("\n")

	section("GWAS ASSOCIATIONS")
	line("Variants with GWAS hits", s.WithGWAS)
	line("Total GWAS Associations", s.GWASAssociations)
	b.WriteString("\n")

	section("KEY FINDINGS")
	b.WriteString("Variants with Multiple Evidence:\n")
	fmt.Fprintf(&b, "  - eQTL + GWAS:                   %d\n\n", s.MultiEvidence)
	b.WriteString("High-Impact Coding Variants:\n")
	fmt.Fprintf(&b, "  - Missense:                      %d\n", s.Missense)
	fmt.Fprintf(&b, "  - Stop-gained (nonsense):        %d\n", s.StopGained)
	fmt.Fprintf(&b, "  - Frameshift:                    %d\n\n", s.Frameshift)

	section("DATA FILES GENERATED")
	b.WriteString("- master_integrated.csv:     All variants with integrated annotations\n")
	b.WriteString("- variants_basic.csv:        Basic variant information\n")
	b.WriteString("- eqtl_associations.csv:     Expression QTL data\n")
	b.WriteString("- gwas_associations.csv:     GWAS phenotype associations\n")
	b.WriteString("- variant_protein_mapping.csv: Coding variants mapped to domains\n")
	b.WriteString("- variants_annotated.csv:    VEP functional annotations\n")

	return b.String()
}
