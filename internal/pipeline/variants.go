package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var variantsHeader = []string{
	"variant_id", "chr", "start", "end", "strand", "alleles",
	"minor_allele", "maf", "consequence_type", "clinical_significance",
	"source",
}

// FetchVariants fetches all variation features in the gene region, keeps
// the rsID-identified ones, and writes processed/variants_basic.csv.
func (r *Runner) FetchVariants(ctx context.Context) error {
	variants, err := r.clients.Ensembl.RegionVariants(ctx, r.profile.Chrom, r.profile.Start, r.profile.End)
	if err != nil {
		return err
	}

	consequenceCounts := map[string]int{}
	var rows [][]string
	withMAF, withClinical := 0, 0
	for _, v := range variants {
		if !strings.HasPrefix(v.ID, "rs") {
			continue
		}
		if v.MinorAlleleFreq != nil {
			withMAF++
		}
		if len(v.ClinicalSignificance) > 0 {
			withClinical++
		}
		if v.ConsequenceType != "" {
			consequenceCounts[v.ConsequenceType]++
		}
		rows = append(rows, []string{
			v.ID,
			v.SeqRegionName,
			strconv.FormatInt(v.Start, 10),
			strconv.FormatInt(v.End, 10),
			strconv.Itoa(v.Strand),
			strings.Join(v.Alleles, "|"),
			v.MinorAllele,
			fmtFloat(v.MinorAlleleFreq),
			v.ConsequenceType,
			strings.Join(v.ClinicalSignificance, "|"),
			v.Source,
		})
	}

	if err := writeCSVFile(r.paths.VariantsBasic(), variantsHeader, rows); err != nil {
		return err
	}

	stats := map[string]any{
		"total_variants":           len(rows),
		"with_maf":                 withMAF,
		"with_clinical_sig":        withClinical,
		"unique_consequence_types": len(consequenceCounts),
		"top_consequence_types":    topCounts(consequenceCounts, 10),
	}
	if err := writeJSONFile(r.paths.VariantStats(), stats); err != nil {
		return err
	}

	r.logger.Info("variants fetched",
		zap.Int("total", len(rows)), zap.Int("with_maf", withMAF))
	return nil
}

// topCounts returns the n highest counts, ties broken by name.
func topCounts(counts map[string]int, n int) map[string]int {
	type kv struct {
		k string
		v int
	}
	sorted := make([]kv, 0, len(counts))
	for k, v := range counts {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].v != sorted[j].v {
			return sorted[i].v > sorted[j].v
		}
		return sorted[i].k < sorted[j].k
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	top := make(map[string]int, len(sorted))
	for _, e := range sorted {
		top[e.k] = e.v
	}
	return top
}
