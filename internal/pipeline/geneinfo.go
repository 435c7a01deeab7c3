package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/ensembl"
)

type geneInfoFile struct {
	Gene        json.RawMessage      `json:"gene"`
	Transcripts []ensembl.Transcript `json:"transcripts"`
	Protein     json.RawMessage      `json:"protein"`
	Structure   *structureInfo       `json:"structure"`
}

type structureInfo struct {
	ModelVersion string `json:"model_version"`
	PDBURL       string `json:"pdb_url"`
	CIFURL       string `json:"cif_url"`
}

// FetchGeneInfo collects the gene record, its transcripts, the protein
// entry, and the AlphaFold structure metadata into raw/gene_info.json.
// Sources that fail leave their section null.
func (r *Runner) FetchGeneInfo(ctx context.Context) error {
	info := geneInfoFile{}

	gene, err := r.clients.Ensembl.Gene(ctx, r.profile.EnsemblID)
	if err != nil {
		r.logger.Warn("gene record unavailable", zap.Error(err))
	} else {
		info.Gene = gene
	}

	transcripts, err := r.clients.Ensembl.Transcripts(ctx, r.profile.EnsemblID)
	if err != nil {
		r.logger.Warn("transcripts unavailable", zap.Error(err))
	} else {
		info.Transcripts = transcripts
	}

	protein, err := r.clients.UniProt.Entry(ctx, r.profile.UniProtID)
	if err != nil {
		r.logger.Warn("protein entry unavailable", zap.Error(err))
	} else {
		info.Protein = protein
	}

	pred, err := r.clients.AlphaFold.Prediction(ctx, r.profile.UniProtID)
	if err != nil {
		r.logger.Warn("structure metadata unavailable", zap.Error(err))
	} else {
		info.Structure = &structureInfo{
			ModelVersion: pred.ModelVersion,
			PDBURL:       pred.PDBURL,
			CIFURL:       pred.CIFURL,
		}
	}

	return writeJSONFile(r.paths.GeneInfo(), info)
}
