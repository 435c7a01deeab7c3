package gene

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

const lookupJSON = `{
  "id": "ENSG00000130766",
  "seq_region_name": "1",
  "start": 28259473,
  "end": 28282491,
  "Transcript": [
    {"id": "ENST00000111111", "biotype": "retained_intron", "is_canonical": 0, "start": 28259473, "end": 28260000},
    {"id": "ENST00000253063", "biotype": "protein_coding", "is_canonical": 1, "start": 28259473, "end": 28282491}
  ]
}`

const uniprotJSON = `{
  "results": [
    {"primaryAccession": "P58004", "sequence": {"length": 480}}
  ]
}`

func resolveServer(t *testing.T) (*restclient.Client, *restclient.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/lookup/symbol/homo_sapiens/"):
			w.Write([]byte(lookupJSON))
		case r.URL.Path == "/uniprotkb/search":
			w.Write([]byte(uniprotJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	opts := []restclient.Option{
		restclient.WithRateLimit(1000),
		restclient.WithRetry(1, time.Millisecond),
		restclient.WithStore(restclient.NewMemStore()),
	}
	ensembl, err := restclient.New(srv.URL, opts...)
	require.NoError(t, err)
	uniprot, err := restclient.New(srv.URL, opts...)
	require.NoError(t, err)
	return ensembl, uniprot
}

func TestResolve(t *testing.T) {
	ensembl, uniprot := resolveServer(t)

	p, err := Resolve(context.Background(), ensembl, uniprot, "sesn2")
	require.NoError(t, err)

	assert.Equal(t, "SESN2", p.Symbol)
	assert.Equal(t, "ENSG00000130766", p.EnsemblID)
	assert.Equal(t, "1", p.Chrom)
	assert.EqualValues(t, 28259473, p.Start)
	assert.EqualValues(t, 28282491, p.End)
	assert.Equal(t, "P58004", p.UniProtID)
	assert.Equal(t, "ENST00000253063", p.CanonicalTranscript)
	assert.Equal(t, 480, p.ProteinLength)
}

func TestResolveUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := restclient.New(srv.URL,
		restclient.WithRateLimit(1000),
		restclient.WithRetry(1, time.Millisecond),
		restclient.WithStore(restclient.NewMemStore()))
	require.NoError(t, err)

	_, err = Resolve(context.Background(), c, c, "NOSUCHGENE")
	assert.Error(t, err)
}

func TestPickCanonicalFallbacks(t *testing.T) {
	var lookup lookupResponse
	lookup.Transcript = []transcriptRef{
		{ID: "ENST1", Biotype: "protein_coding", Start: 100, End: 500},
		{ID: "ENST2", Biotype: "protein_coding", Start: 100, End: 900},
		{ID: "ENST3", Biotype: "lncRNA", Start: 100, End: 2000},
	}

	// No canonical flag: longest protein-coding wins over a longer non-coding.
	assert.Equal(t, "ENST2", pickCanonical(lookup))

	// Nothing protein-coding: first listed.
	lookup.Transcript = lookup.Transcript[2:]
	assert.Equal(t, "ENST3", pickCanonical(lookup))
}
