package pipeline

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesOrder(t *testing.T) {
	r, _ := newTestRunner(t, http.NewServeMux())

	var names []string
	for _, s := range r.Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"fetch gene", "fetch variants", "fetch frequencies", "fetch eqtl",
		"fetch pqtl", "fetch gwas", "annotate", "domains", "integrate",
		"structure",
	}, names)
}

func TestRunAllStopsOnMissingInput(t *testing.T) {
	// Every endpoint 404s: the variants stage degrades, which leaves
	// variants_basic.csv missing, and the frequencies stage must stop
	// the run.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r, _ := newTestRunner(t, mux)

	err := r.RunAll(context.Background())
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "genescout fetch variants")
}

func TestRunAllRefusesConcurrentRuns(t *testing.T) {
	r, paths := newTestRunner(t, http.NewServeMux())

	held := flock.New(paths.LockFile())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	err = r.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another run")
}

func TestRunAllHonorsContextCancel(t *testing.T) {
	r, _ := newTestRunner(t, http.NewServeMux())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.RunAll(ctx)
	require.Error(t, err)
}
