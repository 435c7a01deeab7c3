// Package myvariant wraps the MyVariant.info bulk variant API for gnomAD
// population frequencies.
package myvariant

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://myvariant.info/v1"

// RateLimit is the ceiling for MyVariant requests.
const RateLimit = 5

// batchSize keeps bulk POSTs under the service's 1000-ID limit with margin.
const batchSize = 500

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Frequency carries gnomAD genome and exome frequency fields for one
// variant. Pointer fields are nil when the source reports nothing.
type Frequency struct {
	VariantID string
	GenomeAF  *float64
	GenomeAC  *int64
	GenomeAN  *int64
	GenomeHom *int64
	ExomeAF   *float64
	ExomeAC   *int64
	ExomeAN   *int64
	ExomeHom  *int64
}

// Frequencies fetches gnomAD frequencies for a list of rsIDs in bulk
// batches. Partial results are returned alongside a batch error so the
// caller can keep whatever arrived.
func (c *Client) Frequencies(ctx context.Context, rsids []string) ([]Frequency, error) {
	var out []Frequency
	for i := 0; i < len(rsids); i += batchSize {
		end := min(i+batchSize, len(rsids))
		body := map[string]string{
			"ids":    strings.Join(rsids[i:end], ","),
			"fields": "gnomad_exome,gnomad_genome",
		}

		data, err := c.rc.Post(ctx, "/variant", nil, body)
		if err != nil {
			return out, fmt.Errorf("myvariant batch %d-%d: %w", i, end, err)
		}
		out = append(out, parseFrequencies(data)...)
	}
	return out, nil
}

// parseFrequencies flattens the nested gnomad_genome/gnomad_exome blocks.
// MyVariant nests each metric one level deeper than its name (af.af,
// ac.ac, ...).
func parseFrequencies(data []byte) []Frequency {
	var freqs []Frequency
	gjson.ParseBytes(data).ForEach(func(_, res gjson.Result) bool {
		id := res.Get("query").String()
		if id == "" {
			return true
		}
		f := Frequency{VariantID: id}
		f.GenomeAF = floatAt(res, "gnomad_genome.af.af")
		f.GenomeAC = intAt(res, "gnomad_genome.ac.ac")
		f.GenomeAN = intAt(res, "gnomad_genome.an.an")
		f.GenomeHom = intAt(res, "gnomad_genome.hom.hom")
		f.ExomeAF = floatAt(res, "gnomad_exome.af.af")
		f.ExomeAC = intAt(res, "gnomad_exome.ac.ac")
		f.ExomeAN = intAt(res, "gnomad_exome.an.an")
		f.ExomeHom = intAt(res, "gnomad_exome.hom.hom")
		freqs = append(freqs, f)
		return true
	})
	return freqs
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
