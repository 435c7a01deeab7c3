// Package gnomad wraps the gnomAD GraphQL API for per-gene variant
// frequency queries.
package gnomad

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://gnomad.broadinstitute.org/api"

const datasetID = "gnomad_r4"

const variantsQuery = `
query GnomadVariants($geneId: String!, $datasetId: DatasetId!) {
  gene(gene_id: $geneId, reference_genome: GRCh38) {
    variants(dataset: $datasetId) {
      variant_id
      pos
      ref
      alt
      genome {
        ac
        an
        af
        homozygote_count
        filters
      }
      exome {
        ac
        an
        af
        homozygote_count
        filters
      }
    }
  }
}`

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Variant is one gnomAD variant with its genome and exome callset counts.
type Variant struct {
	VariantID string
	Pos       int64
	Ref       string
	Alt       string
	GenomeAF  *float64
	GenomeAC  *int64
	GenomeAN  *int64
	GenomeHom *int64
	ExomeAF   *float64
	ExomeAC   *int64
	ExomeAN   *int64
	ExomeHom  *int64
}

// GeneVariants runs the variants query for one Ensembl gene ID.
func (c *Client) GeneVariants(ctx context.Context, geneID string) ([]Variant, error) {
	body := map[string]any{
		"query": variantsQuery,
		"variables": map[string]string{
			"geneId":    geneID,
			"datasetId": datasetID,
		},
	}
	data, err := c.rc.Post(ctx, "", nil, body)
	if err != nil {
		return nil, err
	}
	if errs := gjson.GetBytes(data, "errors"); errs.Exists() && len(errs.Array()) > 0 {
		return nil, fmt.Errorf("gnomAD query error: %s", errs.Array()[0].Get("message").String())
	}

	var variants []Variant
	gjson.GetBytes(data, "data.gene.variants").ForEach(func(_, v gjson.Result) bool {
		variants = append(variants, Variant{
			VariantID: v.Get("variant_id").String(),
			Pos:       v.Get("pos").Int(),
			Ref:       v.Get("ref").String(),
			Alt:       v.Get("alt").String(),
			GenomeAF:  floatAt(v, "genome.af"),
			GenomeAC:  intAt(v, "genome.ac"),
			GenomeAN:  intAt(v, "genome.an"),
			GenomeHom: intAt(v, "genome.homozygote_count"),
			ExomeAF:   floatAt(v, "exome.af"),
			ExomeAC:   intAt(v, "exome.ac"),
			ExomeAN:   intAt(v, "exome.an"),
			ExomeHom:  intAt(v, "exome.homozygote_count"),
		})
		return true
	})
	return variants, nil
}

func floatAt(res gjson.Result, path string) *float64 {
	if v := res.Get(path); v.Exists() {
		f := v.Float()
		return &f
	}
	return nil
}

func intAt(res gjson.Result, path string) *int64 {
	if v := res.Get(path); v.Exists() {
		n := v.Int()
		return &n
	}
	return nil
}
