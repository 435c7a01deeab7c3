package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/gtex"
)

var eqtlHeader = []string{"variant_id", "rsid", "gene_id", "tissue", "pvalue", "nes"}

// FetchEQTL queries every GTEx tissue for single-tissue eQTLs and writes
// outputs/eqtl_associations.csv. Tissues that fail are skipped.
func (r *Runner) FetchEQTL(ctx context.Context) error {
	var rows [][]string
	tissueCounts := map[string]int{}
	uniqueVariants := map[string]struct{}{}
	failed := 0

	for _, tissue := range gtex.Tissues {
		assocs, err := r.clients.GTEx.EQTLs(ctx, r.profile.EnsemblID, tissue)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			r.logger.Warn("tissue query failed", zap.String("tissue", tissue), zap.Error(err))
			continue
		}
		for _, a := range assocs {
			tissueCounts[tissue]++
			uniqueVariants[a.VariantID] = struct{}{}
			rows = append(rows, []string{
				a.VariantID, a.SnpID, a.GeneID, tissue,
				fmtFloat(a.PValue), fmtFloat(a.NES),
			})
		}
	}
	if failed == len(gtex.Tissues) {
		return fmt.Errorf("all %d GTEx tissue queries failed", failed)
	}

	if err := writeCSVFile(r.paths.EQTLAssociations(), eqtlHeader, rows); err != nil {
		return err
	}

	stats := map[string]any{
		"total_eqtls":        len(rows),
		"unique_variants":    len(uniqueVariants),
		"tissues_with_eqtls": len(tissueCounts),
		"tissues_failed":     failed,
		"top_tissues":        topCounts(tissueCounts, 10),
	}
	if err := writeJSONFile(r.paths.EQTLStats(), stats); err != nil {
		return err
	}

	r.logger.Info("eQTLs fetched",
		zap.Int("associations", len(rows)),
		zap.Int("tissues_with_eqtls", len(tissueCounts)))
	return nil
}
