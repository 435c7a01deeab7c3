package myvariant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genescout/genescout/internal/restclient"
)

func TestParseFrequencies(t *testing.T) {
	data := `[
	  {"query": "rs1001",
	   "gnomad_genome": {"af": {"af": 0.0012}, "ac": {"ac": 37}, "an": {"an": 31398}, "hom": {"hom": 0}},
	   "gnomad_exome": {"af": {"af": 0.0009}}},
	  {"query": "rs1002", "notfound": true},
	  {"gnomad_genome": {"af": {"af": 0.5}}}
	]`

	freqs := parseFrequencies([]byte(data))
	require.Len(t, freqs, 2) // the record without a query echo is dropped

	f := freqs[0]
	assert.Equal(t, "rs1001", f.VariantID)
	require.NotNil(t, f.GenomeAF)
	assert.InDelta(t, 0.0012, *f.GenomeAF, 1e-9)
	require.NotNil(t, f.GenomeAC)
	assert.EqualValues(t, 37, *f.GenomeAC)
	require.NotNil(t, f.GenomeHom)
	assert.EqualValues(t, 0, *f.GenomeHom)
	require.NotNil(t, f.ExomeAF)
	assert.Nil(t, f.ExomeAC)

	// A not-found record keeps its ID with every field nil.
	assert.Equal(t, "rs1002", freqs[1].VariantID)
	assert.Nil(t, freqs[1].GenomeAF)
}

func TestFrequenciesBatching(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			IDs    string `json:"ids"`
			Fields string `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gnomad_exome,gnomad_genome", body.Fields)

		ids := strings.Split(body.IDs, ",")
		batchSizes = append(batchSizes, len(ids))

		out := make([]map[string]any, len(ids))
		for i, id := range ids {
			out[i] = map[string]any{"query": id}
		}
		json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)

	rc, err := restclient.New(srv.URL,
		restclient.WithRateLimit(1000),
		restclient.WithRetry(1, time.Millisecond),
		restclient.WithStore(restclient.NewMemStore()))
	require.NoError(t, err)

	rsids := make([]string, 750)
	for i := range rsids {
		rsids[i] = "rs" + strings.Repeat("1", 3)
	}

	freqs, err := New(rc).Frequencies(context.Background(), rsids)
	require.NoError(t, err)
	assert.Len(t, freqs, 750)
	assert.Equal(t, []int{500, 250}, batchSizes)
}
