// Package gwascat wraps the GWAS Catalog REST API (HAL-style payloads).
package gwascat

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://www.ebi.ac.uk/gwas/rest/api"

// RateLimit is the ceiling for GWAS Catalog requests.
const RateLimit = 10

// maxStudyTitle truncates very long study titles in outputs.
const maxStudyTitle = 100

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// SNP is a catalog variant with its genomic location, when reported.
type SNP struct {
	RsID  string
	Chrom string
	Pos   *int64
}

// Association is one trait association for a SNP.
type Association struct {
	Trait  string
	PValue *float64
	Study  string
}

// SNPsByGene returns catalog SNPs mapped near a gene symbol.
func (c *Client) SNPsByGene(ctx context.Context, geneName string) ([]SNP, error) {
	data, err := c.rc.Get(ctx, "/singleNucleotidePolymorphisms/search/findByGene",
		url.Values{"geneName": {geneName}})
	if err != nil {
		return nil, err
	}
	return parseSNPs(data), nil
}

// SNPsByRegion returns catalog SNPs located within a base-pair range.
func (c *Client) SNPsByRegion(ctx context.Context, chrom string, start, end int64) ([]SNP, error) {
	data, err := c.rc.Get(ctx, "/singleNucleotidePolymorphisms/search/findByChromBpLocationRange",
		url.Values{
			"chrom":   {chrom},
			"bpStart": {strconv.FormatInt(start, 10)},
			"bpEnd":   {strconv.FormatInt(end, 10)},
		})
	if err != nil {
		return nil, err
	}
	return parseSNPs(data), nil
}

// Associations returns all trait associations reported for one rsID.
func (c *Client) Associations(ctx context.Context, rsID string) ([]Association, error) {
	data, err := c.rc.Get(ctx, fmt.Sprintf("/singleNucleotidePolymorphisms/%s/associations", rsID), nil)
	if err != nil {
		return nil, err
	}
	return parseAssociations(data), nil
}

func parseSNPs(data []byte) []SNP {
	var snps []SNP
	gjson.GetBytes(data, "_embedded.singleNucleotidePolymorphisms").ForEach(func(_, s gjson.Result) bool {
		snp := SNP{RsID: s.Get("rsId").String()}
		if loc := s.Get("locations.0"); loc.Exists() {
			snp.Chrom = loc.Get("chromosomeName").String()
			if pos := loc.Get("chromosomePosition"); pos.Exists() {
				v := pos.Int()
				snp.Pos = &v
			}
		}
		snps = append(snps, snp)
		return true
	})
	return snps
}

// parseAssociations flattens the HAL association list. Trait naming falls
// back from EFO trait to beta unit to free-text description.
func parseAssociations(data []byte) []Association {
	var assocs []Association
	gjson.GetBytes(data, "_embedded.associations").ForEach(func(_, a gjson.Result) bool {
		assoc := Association{Trait: "Unknown", Study: "GWAS Catalog"}

		if trait := a.Get("efoTraits.0.trait"); trait.Exists() && trait.String() != "" {
			assoc.Trait = trait.String()
		} else if unit := a.Get("betaUnit"); unit.Exists() && unit.String() != "" {
			assoc.Trait = fmt.Sprintf("Quantitative trait (%s)", unit.String())
		} else if desc := a.Get("description"); desc.Exists() && desc.String() != "" {
			assoc.Trait = desc.String()
		}

		if pv := a.Get("pvalue"); pv.Exists() {
			v := pv.Float()
			assoc.PValue = &v
		}
		if title := a.Get("study.title"); title.Exists() && title.String() != "" {
			assoc.Study = truncate(title.String(), maxStudyTitle)
		}

		assocs = append(assocs, assoc)
		return true
	})
	return assocs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
