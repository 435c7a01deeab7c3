package gene

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

// lookupResponse mirrors the Ensembl /lookup/symbol payload with expanded
// transcripts.
type lookupResponse struct {
	ID            string          `json:"id"`
	SeqRegionName string          `json:"seq_region_name"`
	Start         int64           `json:"start"`
	End           int64           `json:"end"`
	Transcript    []transcriptRef `json:"Transcript"`
}

type transcriptRef struct {
	ID          string `json:"id"`
	Biotype     string `json:"biotype"`
	IsCanonical int    `json:"is_canonical"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
}

// Resolve builds a Profile for a gene symbol from Ensembl (coordinates,
// canonical transcript) and UniProt (accession, protein length). A symbol
// that cannot be resolved is a setup error: the pipeline has nothing to run
// against.
func Resolve(ctx context.Context, ensembl, uniprot *restclient.Client, symbol string) (*Profile, error) {
	symbol = strings.ToUpper(symbol)

	data, err := ensembl.Get(ctx, "/lookup/symbol/homo_sapiens/"+symbol, url.Values{"expand": {"1"}})
	if err != nil {
		return nil, fmt.Errorf("resolve %s via Ensembl: %w", symbol, err)
	}
	var lookup lookupResponse
	if err := json.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("parse Ensembl lookup for %s: %w", symbol, err)
	}
	if lookup.ID == "" {
		return nil, fmt.Errorf("Ensembl returned no gene for symbol %s", symbol)
	}

	canonical := pickCanonical(lookup)

	udata, err := uniprot.Get(ctx, "/uniprotkb/search", url.Values{
		"query":  {fmt.Sprintf("gene:%s AND organism_id:9606", symbol)},
		"format": {"json"},
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s via UniProt: %w", symbol, err)
	}
	entry := gjson.GetBytes(udata, "results.0")
	if !entry.Exists() {
		return nil, fmt.Errorf("no UniProt entry for gene %s", symbol)
	}

	p := &Profile{
		Symbol:              symbol,
		EnsemblID:           lookup.ID,
		Chrom:               lookup.SeqRegionName,
		Start:               lookup.Start,
		End:                 lookup.End,
		UniProtID:           entry.Get("primaryAccession").String(),
		CanonicalTranscript: canonical,
		ProteinLength:       int(entry.Get("sequence.length").Int()),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// pickCanonical prefers the transcript flagged canonical, then the longest
// protein-coding one, then the first listed.
func pickCanonical(lookup lookupResponse) string {
	for _, t := range lookup.Transcript {
		if t.IsCanonical == 1 {
			return t.ID
		}
	}
	var best string
	var bestLen int64 = -1
	for _, t := range lookup.Transcript {
		if t.Biotype != "protein_coding" {
			continue
		}
		if l := t.End - t.Start; l > bestLen {
			best, bestLen = t.ID, l
		}
	}
	if best != "" {
		return best
	}
	if len(lookup.Transcript) > 0 {
		return lookup.Transcript[0].ID
	}
	return ""
}
