// Package uniprot wraps the UniProtKB REST API for protein entries and
// domain features.
package uniprot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://rest.uniprot.org"

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Entry fetches the full UniProtKB record for an accession.
func (c *Client) Entry(ctx context.Context, accession string) (json.RawMessage, error) {
	return c.rc.Get(ctx, "/uniprotkb/"+accession+".json", nil)
}

// Domain is a named protein region with 1-based residue coordinates.
type Domain struct {
	Type        string
	Description string
	Start       int64
	End         int64
}

// Contains reports whether the residue interval [start, end] overlaps the
// domain.
func (d Domain) Contains(start, end int64) bool {
	return start <= d.End && end >= d.Start
}

// Domains fetches the entry and extracts its Domain and Region features.
func (c *Client) Domains(ctx context.Context, accession string) ([]Domain, error) {
	data, err := c.Entry(ctx, accession)
	if err != nil {
		return nil, err
	}
	domains := ExtractDomains(data)
	if domains == nil {
		return nil, fmt.Errorf("no domain features in UniProt entry %s", accession)
	}
	return domains, nil
}

// ExtractDomains pulls Domain and Region features out of a raw UniProtKB
// entry. Features without both location endpoints are skipped.
func ExtractDomains(entry []byte) []Domain {
	var domains []Domain
	gjson.GetBytes(entry, "features").ForEach(func(_, f gjson.Result) bool {
		typ := f.Get("type").String()
		if typ != "Domain" && typ != "Region" {
			return true
		}
		start := f.Get("location.start.value")
		end := f.Get("location.end.value")
		if !start.Exists() || !end.Exists() {
			return true
		}
		desc := f.Get("description").String()
		if desc == "" {
			desc = typ
		}
		domains = append(domains, Domain{
			Type:        typ,
			Description: desc,
			Start:       start.Int(),
			End:         end.Int(),
		})
		return true
	})
	return domains
}
