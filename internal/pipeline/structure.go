package pipeline

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/alphafold"
)

var plddtHeader = []string{"residue", "plddt"}

// FetchStructure downloads the AlphaFold model for the gene's protein and
// writes the per-residue confidence table to outputs/plddt_scores.csv.
func (r *Runner) FetchStructure(ctx context.Context) error {
	pred, err := r.clients.AlphaFold.Prediction(ctx, r.profile.UniProtID)
	if err != nil {
		return err
	}

	pdbPath := r.paths.StructurePDB(r.profile.UniProtID)
	if err := alphafold.DownloadPDB(pred.PDBURL, pdbPath); err != nil {
		return err
	}

	scores, err := alphafold.PLDDTScores(pdbPath)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(scores))
	var total float64
	for _, s := range scores {
		total += s.PLDDT
		rows = append(rows, []string{
			strconv.Itoa(s.Residue),
			strconv.FormatFloat(s.PLDDT, 'f', 2, 64),
		})
	}
	if err := writeCSVFile(r.paths.PLDDTScores(), plddtHeader, rows); err != nil {
		return err
	}

	avg := 0.0
	if len(scores) > 0 {
		avg = total / float64(len(scores))
	}
	r.logger.Info("structure downloaded",
		zap.String("path", pdbPath),
		zap.Int("residues", len(scores)),
		zap.Float64("avg_plddt", avg))
	return nil
}
