package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/myvariant"
)

// FetchFrequencies joins gnomAD population frequencies onto the basic
// variant table and writes processed/variants_with_frequencies.csv.
func (r *Runner) FetchFrequencies(ctx context.Context) error {
	if err := requireFile(r.paths.VariantsBasic(), "genescout fetch variants"); err != nil {
		return err
	}
	rows, err := readCSVFile(r.paths.VariantsBasic())
	if err != nil {
		return err
	}

	rsids := make([]string, 0, len(rows))
	for _, row := range rows {
		rsids = append(rsids, row["variant_id"])
	}

	freqs, err := r.clients.MyVariant.Frequencies(ctx, rsids)
	if err != nil {
		if len(freqs) > 0 {
			r.logger.Warn("frequency fetch incomplete, keeping partial results",
				zap.Int("fetched", len(freqs)), zap.Error(err))
		} else {
			r.logger.Warn("bulk frequency lookup failed, trying gnomad gene query",
				zap.Error(err))
		}
	}
	byID := make(map[string]myvariant.Frequency, len(freqs))
	for _, f := range freqs {
		byID[f.VariantID] = f
	}

	// When the bulk lookup produced nothing the gnomAD gene query still
	// covers the region. Its variants carry no rsIDs, so they join on
	// genomic position instead.
	var byPos map[int64]myvariant.Frequency
	if len(byID) == 0 && len(rows) > 0 {
		byPos, err = r.gnomadByPosition(ctx)
		if err != nil {
			return fmt.Errorf("gnomad frequency fallback: %w", err)
		}
		r.logger.Info("using gnomad gene query for frequencies",
			zap.Int("positions", len(byPos)))
	}

	header := append(append([]string{}, variantsHeader...),
		"gnomad_af_genome", "gnomad_ac_genome", "gnomad_an_genome", "gnomad_hom_genome",
		"gnomad_af_exome", "gnomad_ac_exome", "gnomad_an_exome", "gnomad_hom_exome")

	withGenome, withExome, common, rare := 0, 0, 0, 0
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		f, ok := byID[row["variant_id"]]
		if !ok && len(byPos) > 0 {
			if pos, perr := strconv.ParseInt(row["start"], 10, 64); perr == nil {
				f = byPos[pos]
			}
		}
		if f.GenomeAF != nil {
			withGenome++
			if *f.GenomeAF > 0.01 {
				common++
			} else if *f.GenomeAF > 0 {
				rare++
			}
		}
		if f.ExomeAF != nil {
			withExome++
		}
		rec := make([]string, 0, len(header))
		for _, col := range variantsHeader {
			rec = append(rec, row[col])
		}
		rec = append(rec,
			fmtFloat(f.GenomeAF), fmtInt(f.GenomeAC), fmtInt(f.GenomeAN), fmtInt(f.GenomeHom),
			fmtFloat(f.ExomeAF), fmtInt(f.ExomeAC), fmtInt(f.ExomeAN), fmtInt(f.ExomeHom))
		out = append(out, rec)
	}

	if err := writeCSVFile(r.paths.VariantsWithFrequencies(), header, out); err != nil {
		return err
	}

	stats := map[string]any{
		"total_variants":         len(out),
		"with_genome_freq":       withGenome,
		"with_exome_freq":        withExome,
		"common_variants_genome": common,
		"rare_variants_genome":   rare,
		"coverage_pct":           coveragePct(withGenome, len(out)),
	}
	if err := writeJSONFile(r.paths.FrequencyStats(), stats); err != nil {
		return err
	}

	r.logger.Info("frequencies merged",
		zap.Int("total", len(out)), zap.Int("with_genome_freq", withGenome))
	return nil
}

// gnomadByPosition fetches every gnomAD variant for the gene and keys the
// frequencies by start position. The first entry wins when several alt
// alleles share a position.
func (r *Runner) gnomadByPosition(ctx context.Context) (map[int64]myvariant.Frequency, error) {
	variants, err := r.clients.Gnomad.GeneVariants(ctx, r.profile.EnsemblID)
	if err != nil {
		return nil, err
	}
	byPos := make(map[int64]myvariant.Frequency, len(variants))
	for _, v := range variants {
		if _, ok := byPos[v.Pos]; ok {
			continue
		}
		byPos[v.Pos] = myvariant.Frequency{
			GenomeAF:  v.GenomeAF,
			GenomeAC:  v.GenomeAC,
			GenomeAN:  v.GenomeAN,
			GenomeHom: v.GenomeHom,
			ExomeAF:   v.ExomeAF,
			ExomeAC:   v.ExomeAC,
			ExomeAN:   v.ExomeAN,
			ExomeHom:  v.ExomeHom,
		}
	}
	return byPos, nil
}

func coveragePct(covered, total int) string {
	if total == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(100*float64(covered)/float64(total), 'f', 1, 64)
}
