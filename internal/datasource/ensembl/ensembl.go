// Package ensembl wraps the Ensembl REST API: gene lookup, transcripts,
// variation features in a region, per-rsID variant detail, and VEP
// consequence annotation.
package ensembl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/genescout/genescout/internal/restclient"
)

// BaseURL is the GRCh38 Ensembl REST endpoint.
const BaseURL = "https://rest.ensembl.org"

// vepBatchSize is the number of region strings per VEP POST. The service
// accepts up to 1000 but large batches time out; 200 matches observed
// stable behavior.
const vepBatchSize = 200

// Client is a typed wrapper over the shared rest client.
type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Gene fetches the raw gene record for an Ensembl gene ID.
func (c *Client) Gene(ctx context.Context, geneID string) (json.RawMessage, error) {
	return c.rc.Get(ctx, "/lookup/id/"+geneID, nil)
}

// VariantDetail is the per-rsID record from the variation endpoint.
type VariantDetail struct {
	Name                  string   `json:"name"`
	MAF                   *float64 `json:"MAF"`
	MinorAllele           string   `json:"minor_allele"`
	MostSevereConsequence string   `json:"most_severe_consequence"`
	ClinicalSignificance  []string `json:"clinical_significance"`
	Synonyms              []string `json:"synonyms"`
}

// Variation fetches the detail record for one rsID.
func (c *Client) Variation(ctx context.Context, rsID string) (*VariantDetail, error) {
	data, err := c.rc.Get(ctx, "/variation/human/"+rsID, nil)
	if err != nil {
		return nil, err
	}
	var detail VariantDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("parse variation %s: %w", rsID, err)
	}
	return &detail, nil
}

// Transcript is the subset of Ensembl transcript fields the pipeline uses.
type Transcript struct {
	ID          string `json:"id"`
	Biotype     string `json:"biotype"`
	IsCanonical int    `json:"is_canonical"`
	Length      int64  `json:"length"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
}

// Transcripts fetches all transcripts for a gene via an expanded lookup.
func (c *Client) Transcripts(ctx context.Context, geneID string) ([]Transcript, error) {
	data, err := c.rc.Get(ctx, "/lookup/id/"+geneID, url.Values{"expand": {"1"}})
	if err != nil {
		return nil, err
	}
	var lookup struct {
		Transcript []Transcript `json:"Transcript"`
	}
	if err := json.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("parse transcripts for %s: %w", geneID, err)
	}
	return lookup.Transcript, nil
}

// Variant is one variation feature from the overlap endpoint.
type Variant struct {
	ID                   string   `json:"id"`
	SeqRegionName        string   `json:"seq_region_name"`
	Start                int64    `json:"start"`
	End                  int64    `json:"end"`
	Strand               int      `json:"strand"`
	Alleles              []string `json:"alleles"`
	MinorAllele          string   `json:"minor_allele"`
	MinorAlleleFreq      *float64 `json:"minor_allele_freq"`
	ConsequenceType      string   `json:"consequence_type"`
	ClinicalSignificance []string `json:"clinical_significance"`
	Source               string   `json:"source"`
}

// RegionVariants fetches all known variation features overlapping a region.
func (c *Client) RegionVariants(ctx context.Context, chrom string, start, end int64) ([]Variant, error) {
	endpoint := fmt.Sprintf("/overlap/region/human/%s:%d-%d", chrom, start, end)
	data, err := c.rc.Get(ctx, endpoint, url.Values{"feature": {"variation"}})
	if err != nil {
		return nil, err
	}
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("parse region variants: %w", err)
	}
	return variants, nil
}

// VEPResult is one annotated input from the VEP region endpoint.
type VEPResult struct {
	Input                  string                  `json:"input"`
	MostSevereConsequence  string                  `json:"most_severe_consequence"`
	TranscriptConsequences []TranscriptConsequence `json:"transcript_consequences"`
}

// TranscriptConsequence carries the per-transcript VEP predictions.
type TranscriptConsequence struct {
	TranscriptID       string `json:"transcript_id"`
	SiftPrediction     string `json:"sift_prediction"`
	PolyphenPrediction string `json:"polyphen_prediction"`
	AminoAcids         string `json:"amino_acids"`
	Codons             string `json:"codons"`
	ProteinStart       *int64 `json:"protein_start"`
	ProteinEnd         *int64 `json:"protein_end"`
}

// Canonical returns the consequence for the given transcript, falling back
// to the first one listed.
func (r *VEPResult) Canonical(transcriptID string) *TranscriptConsequence {
	for i := range r.TranscriptConsequences {
		if r.TranscriptConsequences[i].TranscriptID == transcriptID {
			return &r.TranscriptConsequences[i]
		}
	}
	if len(r.TranscriptConsequences) > 0 {
		return &r.TranscriptConsequences[0]
	}
	return nil
}

// VEPRegion annotates region strings ("chr start end ref/alt strand") with
// protein and domain detail, batching requests to stay under service
// limits.
func (c *Client) VEPRegion(ctx context.Context, regions []string) ([]VEPResult, error) {
	params := url.Values{"protein": {"1"}, "domains": {"1"}}

	var results []VEPResult
	for i := 0; i < len(regions); i += vepBatchSize {
		end := min(i+vepBatchSize, len(regions))
		body := map[string][]string{"variants": regions[i:end]}

		data, err := c.rc.Post(ctx, "/vep/human/region", params, body)
		if err != nil {
			return results, fmt.Errorf("vep batch %d-%d: %w", i, end, err)
		}
		var batch []VEPResult
		if err := json.Unmarshal(data, &batch); err != nil {
			return results, fmt.Errorf("parse vep batch %d-%d: %w", i, end, err)
		}
		results = append(results, batch...)
	}
	return results, nil
}
