package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var annotatedHeader = []string{
	"variant_id", "input_coords", "most_severe_consequence", "sift",
	"polyphen", "amino_acids", "codons", "protein_start", "protein_end",
}

// codingConsequences marks the consequence types worth per-transcript VEP
// annotation.
var codingConsequences = []string{
	"missense", "nonsense", "frameshift", "splice", "stop_gained", "start_lost",
}

func isCoding(consequence string) bool {
	for _, c := range codingConsequences {
		if strings.Contains(consequence, c) {
			return true
		}
	}
	return false
}

// Annotate runs the coding variants through VEP and writes the canonical
// transcript consequences to outputs/variants_annotated.csv.
func (r *Runner) Annotate(ctx context.Context) error {
	if err := requireFile(r.paths.VariantsBasic(), "genescout fetch variants"); err != nil {
		return err
	}
	rows, err := readCSVFile(r.paths.VariantsBasic())
	if err != nil {
		return err
	}

	var regions []string
	inputToID := map[string]string{}
	for _, row := range rows {
		if !isCoding(row["consequence_type"]) {
			continue
		}
		alleles := strings.ReplaceAll(row["alleles"], "|", "/")
		if alleles == "" {
			alleles = "A/G"
		}
		input := fmt.Sprintf("%s %s %s %s +", row["chr"], row["start"], row["end"], alleles)
		inputToID[input] = row["variant_id"]
		regions = append(regions, input)
	}
	if len(regions) == 0 {
		r.logger.Info("no coding variants to annotate")
		return writeCSVFile(r.paths.VariantsAnnotated(), annotatedHeader, nil)
	}

	results, err := r.clients.Ensembl.VEPRegion(ctx, regions)
	if err != nil {
		if len(results) == 0 {
			return err
		}
		r.logger.Warn("VEP annotation incomplete, keeping partial results",
			zap.Int("annotated", len(results)), zap.Error(err))
	}

	withSift, siftDeleterious, withPolyphen, polyphenDamaging := 0, 0, 0, 0
	out := make([][]string, 0, len(results))
	for i := range results {
		res := &results[i]
		tc := res.Canonical(r.profile.CanonicalTranscript)

		rec := []string{
			inputToID[res.Input], res.Input, res.MostSevereConsequence,
			"", "", "", "", "", "",
		}
		if tc != nil {
			rec[3] = tc.SiftPrediction
			rec[4] = tc.PolyphenPrediction
			rec[5] = tc.AminoAcids
			rec[6] = tc.Codons
			rec[7] = fmtInt(tc.ProteinStart)
			rec[8] = fmtInt(tc.ProteinEnd)
			if tc.SiftPrediction != "" {
				withSift++
				if strings.Contains(tc.SiftPrediction, "deleterious") {
					siftDeleterious++
				}
			}
			if tc.PolyphenPrediction != "" {
				withPolyphen++
				if strings.Contains(tc.PolyphenPrediction, "damaging") {
					polyphenDamaging++
				}
			}
		}
		out = append(out, rec)
	}

	if err := writeCSVFile(r.paths.VariantsAnnotated(), annotatedHeader, out); err != nil {
		return err
	}

	stats := map[string]any{
		"total_annotated":   len(out),
		"with_sift":         withSift,
		"sift_deleterious":  siftDeleterious,
		"with_polyphen":     withPolyphen,
		"polyphen_damaging": polyphenDamaging,
	}
	if err := writeJSONFile(r.paths.AnnotationStats(), stats); err != nil {
		return err
	}

	r.logger.Info("variants annotated",
		zap.Int("total", len(out)), zap.Int("with_sift", withSift))
	return nil
}
