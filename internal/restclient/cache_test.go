package restclient

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok := fs.Get("missing")
	assert.False(t, ok)

	require.NoError(t, fs.Put("lookup_id_ENSG00000130766", []byte(`{"id":"x"}`)))
	data, ok := fs.Get("lookup_id_ENSG00000130766")
	require.True(t, ok)
	assert.Equal(t, `{"id":"x"}`, string(data))
}

func TestFileStoreOverwrite(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Put("k", []byte(`1`)))
	require.NoError(t, fs.Put("k", []byte(`2`)))
	data, ok := fs.Get("k")
	require.True(t, ok)
	assert.Equal(t, `2`, string(data))
}

func TestFileStoreNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Put("k", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestFileStorePutCleansUpOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	// A key with a path separator points the rename at a directory that
	// does not exist.
	require.Error(t, fs.Put("missing/k", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFileStoreUncreatableDir(t *testing.T) {
	// A regular file where the directory should go makes MkdirAll fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewFileStore(filepath.Join(blocker, "cache"))
	assert.Error(t, err)
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := cacheKey("GET", "/overlap/region/human/1:100-200", url.Values{"feature": {"variation"}}, nil)
	b := cacheKey("GET", "/overlap/region/human/1:100-200", url.Values{"feature": {"variation"}}, nil)
	assert.Equal(t, a, b)
}

func TestCacheKeySortsParams(t *testing.T) {
	a := cacheKey("GET", "/e", url.Values{"b": {"2"}, "a": {"1"}}, nil)
	b := cacheKey("GET", "/e", url.Values{"a": {"1"}, "b": {"2"}}, nil)
	assert.Equal(t, a, b)
}

func TestCacheKeyFilesystemSafe(t *testing.T) {
	key := cacheKey("GET", "/vep/human/region?x=1", url.Values{"domains": {"1"}}, nil)
	assert.NotContains(t, key, "/")
	assert.NotContains(t, key, "?")
	assert.NotContains(t, key, "=")
}

func TestCacheKeyLongKeyDigested(t *testing.T) {
	params := url.Values{"ids": {strings.Repeat("rs12345,", 100)}}
	key := cacheKey("POST", "/variant", params, []byte(`{"big":"body"}`))
	assert.True(t, strings.HasPrefix(key, "sig_"))
	assert.Less(t, len(key), 64)
}

func TestCacheKeyBodyChangesKey(t *testing.T) {
	a := cacheKey("POST", "/variant", nil, []byte(`{"ids":"rs1"}`))
	b := cacheKey("POST", "/variant", nil, []byte(`{"ids":"rs2"}`))
	assert.NotEqual(t, a, b)
}
