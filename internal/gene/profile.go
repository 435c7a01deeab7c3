// Package gene defines the per-run gene profile: the coordinates and
// identifiers every pipeline stage keys off.
package gene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Profile identifies the target gene across all data sources.
type Profile struct {
	Symbol              string `json:"symbol"`
	EnsemblID           string `json:"id"`
	Chrom               string `json:"chr"`
	Start               int64  `json:"start"`
	End                 int64  `json:"end"`
	UniProtID           string `json:"uniprot_id"`
	CanonicalTranscript string `json:"canonical_transcript"`
	ProteinLength       int    `json:"protein_length"`
}

// Region formats the gene's genomic region as chr:start-end.
func (p *Profile) Region() string {
	return fmt.Sprintf("%s:%d-%d", p.Chrom, p.Start, p.End)
}

// Validate checks the profile has the fields the pipeline depends on.
func (p *Profile) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("profile missing gene symbol")
	}
	if p.EnsemblID == "" {
		return fmt.Errorf("profile missing Ensembl gene ID")
	}
	if p.Chrom == "" || p.Start <= 0 || p.End < p.Start {
		return fmt.Errorf("profile has invalid region %s:%d-%d", p.Chrom, p.Start, p.End)
	}
	return nil
}

// Load reads a profile from its JSON file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gene profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse gene profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the profile as indented JSON, creating parent directories.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
