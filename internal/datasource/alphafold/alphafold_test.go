package alphafold

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genescout/genescout/internal/restclient"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rc, err := restclient.New(srv.URL,
		restclient.WithRateLimit(1000),
		restclient.WithRetry(1, time.Millisecond),
		restclient.WithStore(restclient.NewMemStore()))
	require.NoError(t, err)
	return New(rc)
}

func TestPredictionTakesLatestEntry(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/prediction/P29972", r.URL.Path)
		w.Write([]byte(`[
			{"latestVersion":"3","pdbUrl":"https://example.org/v3.pdb","cifUrl":"https://example.org/v3.cif"},
			{"latestVersion":"4","pdbUrl":"https://example.org/v4.pdb","cifUrl":"https://example.org/v4.cif"}
		]`))
	})

	p, err := c.Prediction(context.Background(), "P29972")
	require.NoError(t, err)
	assert.Equal(t, "4", p.ModelVersion)
	assert.Equal(t, "https://example.org/v4.pdb", p.PDBURL)
	assert.Equal(t, "https://example.org/v4.cif", p.CIFURL)
}

func TestPredictionEmptyResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.Prediction(context.Background(), "P00000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no AlphaFold prediction")
}

// Columns follow the PDB fixed-width format: residue number in 23-26,
// B-factor (pLDDT) in 61-66.
const fixturePDB = `HEADER    ALPHAFOLD MONOMER V2.0 PREDICTION
ATOM      1  N   MET A   1      -8.202  -4.808  20.132  1.00 35.51           N
ATOM      2  CA  MET A   1      -7.605  -4.090  18.980  1.00 35.51           C
ATOM      3  N   VAL A   2      -5.422  -3.698  19.850  1.00 48.83           N
ATOM      4  CA  VAL A   2      -4.022  -3.562  19.512  1.00 48.83           C
ATOM      5  N   GLY A   3      -2.120  -2.101  19.330  1.00 91.20           N
TER       6      GLY A   3
END
`

func TestPLDDTScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AF-P29972-F1-model_v4.pdb")
	require.NoError(t, os.WriteFile(path, []byte(fixturePDB), 0644))

	scores, err := PLDDTScores(path)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, 1, scores[0].Residue)
	assert.InDelta(t, 35.51, scores[0].PLDDT, 1e-9)
	assert.Equal(t, 2, scores[1].Residue)
	assert.InDelta(t, 48.83, scores[1].PLDDT, 1e-9)
	assert.Equal(t, 3, scores[2].Residue)
	assert.InDelta(t, 91.20, scores[2].PLDDT, 1e-9)
}

func TestPLDDTScoresMissingFile(t *testing.T) {
	_, err := PLDDTScores(filepath.Join(t.TempDir(), "missing.pdb"))
	require.Error(t, err)
}

func TestDownloadPDB(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(fixturePDB))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "structures", "model.pdb")
	require.NoError(t, DownloadPDB(srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, fixturePDB, string(data))

	// A second call finds the file on disk and never hits the server.
	require.NoError(t, DownloadPDB(srv.URL, dest))
	assert.Equal(t, 1, calls)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(dest), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDownloadPDBHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model.pdb")
	err := DownloadPDB(srv.URL, dest)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}
