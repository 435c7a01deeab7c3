package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/gwascat"
)

var gwasHeader = []string{"variant_id", "chr", "pos", "trait", "pvalue", "study", "location"}

// FetchGWAS collects catalog associations for SNPs near the gene and for
// SNPs within its coordinates, deduplicated on variant and position.
func (r *Runner) FetchGWAS(ctx context.Context) error {
	type rowKey struct {
		variant, pos string
	}
	seen := map[rowKey]struct{}{}
	var rows [][]string
	totalAssocs, withinGene, nearGene := 0, 0, 0

	collect := func(snps []gwascat.SNP, location string) {
		for _, snp := range snps {
			assocs, err := r.clients.GWAS.Associations(ctx, snp.RsID)
			if err != nil {
				r.logger.Warn("association lookup failed",
					zap.String("rsid", snp.RsID), zap.Error(err))
				continue
			}
			if len(assocs) == 0 {
				assocs = []gwascat.Association{{
					Trait: "Multiple traits - see GWAS Catalog",
					Study: "GWAS Catalog",
				}}
			}
			for _, a := range assocs {
				totalAssocs++
				key := rowKey{snp.RsID, fmtInt(snp.Pos)}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if location == "within_gene" {
					withinGene++
				} else {
					nearGene++
				}
				rows = append(rows, []string{
					snp.RsID, snp.Chrom, fmtInt(snp.Pos),
					a.Trait, fmtFloat(a.PValue), a.Study, location,
				})
			}
		}
	}

	geneSNPs, geneErr := r.clients.GWAS.SNPsByGene(ctx, r.profile.Symbol)
	if geneErr != nil {
		r.logger.Warn("by-gene SNP lookup failed", zap.Error(geneErr))
	} else {
		collect(geneSNPs, "near_gene")
	}

	regionSNPs, regionErr := r.clients.GWAS.SNPsByRegion(ctx, r.profile.Chrom, r.profile.Start, r.profile.End)
	if regionErr != nil {
		r.logger.Warn("by-region SNP lookup failed", zap.Error(regionErr))
	} else {
		collect(regionSNPs, "within_gene")
	}

	if geneErr != nil && regionErr != nil {
		return fmt.Errorf("GWAS Catalog unavailable: %w", geneErr)
	}

	if err := writeCSVFile(r.paths.GWASAssociations(), gwasHeader, rows); err != nil {
		return err
	}

	stats := map[string]any{
		"total_associations": totalAssocs,
		"unique_variants":    len(seen),
		"within_gene":        withinGene,
		"near_gene":          nearGene,
	}
	if err := writeJSONFile(r.paths.GWASStats(), stats); err != nil {
		return err
	}

	r.logger.Info("GWAS associations fetched", zap.Int("total", len(rows)))
	return nil
}
