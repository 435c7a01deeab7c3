package gwascat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genescout/genescout/internal/restclient"
)

const snpsJSON = `{
  "_embedded": {
    "singleNucleotidePolymorphisms": [
      {"rsId": "rs1001", "locations": [{"chromosomeName": "1", "chromosomePosition": 28259500}]},
      {"rsId": "rs1002", "locations": []}
    ]
  }
}`

func TestParseSNPs(t *testing.T) {
	snps := parseSNPs([]byte(snpsJSON))
	require.Len(t, snps, 2)

	assert.Equal(t, "rs1001", snps[0].RsID)
	assert.Equal(t, "1", snps[0].Chrom)
	require.NotNil(t, snps[0].Pos)
	assert.EqualValues(t, 28259500, *snps[0].Pos)

	assert.Equal(t, "rs1002", snps[1].RsID)
	assert.Nil(t, snps[1].Pos)
}

func TestParseAssociationsTraitFallbacks(t *testing.T) {
	longTitle := strings.Repeat("x", 150)
	data := `{
	  "_embedded": {
	    "associations": [
	      {"efoTraits": [{"trait": "Body mass index"}], "pvalue": 2e-12,
	       "study": {"title": "` + longTitle + `"}},
	      {"betaUnit": "mg/dL", "pvalue": 4e-8},
	      {"description": "fasting glucose"},
	      {}
	    ]
	  }
	}`

	assocs := parseAssociations([]byte(data))
	require.Len(t, assocs, 4)

	assert.Equal(t, "Body mass index", assocs[0].Trait)
	require.NotNil(t, assocs[0].PValue)
	assert.Len(t, assocs[0].Study, 100)

	assert.Equal(t, "Quantitative trait (mg/dL)", assocs[1].Trait)
	assert.Equal(t, "fasting glucose", assocs[2].Trait)
	assert.Equal(t, "Unknown", assocs[3].Trait)
	assert.Equal(t, "GWAS Catalog", assocs[3].Study)
	assert.Nil(t, assocs[3].PValue)
}

func TestSNPsByRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/singleNucleotidePolymorphisms/search/findByChromBpLocationRange", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("chrom"))
		assert.Equal(t, "28259473", q.Get("bpStart"))
		assert.Equal(t, "28282491", q.Get("bpEnd"))
		w.Write([]byte(snpsJSON))
	}))
	t.Cleanup(srv.Close)

	rc, err := restclient.New(srv.URL,
		restclient.WithRateLimit(1000),
		restclient.WithRetry(1, time.Millisecond),
		restclient.WithStore(restclient.NewMemStore()))
	require.NoError(t, err)

	snps, err := New(rc).SNPsByRegion(context.Background(), "1", 28259473, 28282491)
	require.NoError(t, err)
	assert.Len(t, snps, 2)
}
