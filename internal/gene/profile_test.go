package gene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() *Profile {
	return &Profile{
		Symbol:              "SESN2",
		EnsemblID:           "ENSG00000130766",
		Chrom:               "1",
		Start:               28259473,
		End:                 28282491,
		UniProtID:           "P58004",
		CanonicalTranscript: "ENST00000253063",
		ProteinLength:       480,
	}
}

func TestProfileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "current_gene.json")
	p := sampleProfile()
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "1:28259473-28282491", sampleProfile().Region())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
		ok     bool
	}{
		{"valid", func(p *Profile) {}, true},
		{"no symbol", func(p *Profile) { p.Symbol = "" }, false},
		{"no ensembl id", func(p *Profile) { p.EnsemblID = "" }, false},
		{"no chrom", func(p *Profile) { p.Chrom = "" }, false},
		{"inverted region", func(p *Profile) { p.End = p.Start - 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProfile()
			tt.mutate(p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
