package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/datasource/alphafold"
	"github.com/genescout/genescout/internal/datasource/ensembl"
	"github.com/genescout/genescout/internal/datasource/gnomad"
	"github.com/genescout/genescout/internal/datasource/gtex"
	"github.com/genescout/genescout/internal/datasource/gwascat"
	"github.com/genescout/genescout/internal/datasource/myvariant"
	"github.com/genescout/genescout/internal/datasource/uniprot"
	"github.com/genescout/genescout/internal/restclient"
)

// ClientConfig carries the request settings shared by all source clients.
// Sources with a stricter documented ceiling keep their own rate.
type ClientConfig struct {
	CacheDir      string
	CacheEnabled  bool
	RateLimit     float64
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	Logger        *zap.Logger
}

// Clients bundles one typed client per upstream source. Each wraps its own
// rate-limited rest client, so slow sources never stall fast ones.
type Clients struct {
	Ensembl   *ensembl.Client
	UniProt   *uniprot.Client
	GTEx      *gtex.Client
	GWAS      *gwascat.Client
	MyVariant *myvariant.Client
	Gnomad    *gnomad.Client
	AlphaFold *alphafold.Client

	// Raw rest clients for callers outside the stage flow, like gene
	// symbol resolution.
	EnsemblREST *restclient.Client
	UniProtREST *restclient.Client
}

// NewClients builds the per-source clients, each with its own cache
// subdirectory under cfg.CacheDir.
func NewClients(cfg ClientConfig) (*Clients, error) {
	build := func(name, baseURL string, rate float64) (*restclient.Client, error) {
		opts := []restclient.Option{
			restclient.WithRateLimit(rate),
			restclient.WithCacheEnabled(cfg.CacheEnabled),
			restclient.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		}
		if cfg.CacheDir != "" {
			opts = append(opts, restclient.WithCacheDir(filepath.Join(cfg.CacheDir, name)))
		}
		if cfg.UserAgent != "" {
			opts = append(opts, restclient.WithUserAgent(cfg.UserAgent))
		}
		if cfg.Logger != nil {
			opts = append(opts, restclient.WithLogger(cfg.Logger))
		}
		c, err := restclient.New(baseURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("build %s client: %w", name, err)
		}
		return c, nil
	}

	c := &Clients{}
	for _, src := range []struct {
		name    string
		baseURL string
		rate    float64
		assign  func(*restclient.Client)
	}{
		{"ensembl", ensembl.BaseURL, cfg.RateLimit, func(rc *restclient.Client) { c.Ensembl, c.EnsemblREST = ensembl.New(rc), rc }},
		{"uniprot", uniprot.BaseURL, cfg.RateLimit, func(rc *restclient.Client) { c.UniProt, c.UniProtREST = uniprot.New(rc), rc }},
		{"gtex", gtex.BaseURL, gtex.RateLimit, func(rc *restclient.Client) { c.GTEx = gtex.New(rc) }},
		{"gwas", gwascat.BaseURL, gwascat.RateLimit, func(rc *restclient.Client) { c.GWAS = gwascat.New(rc) }},
		{"myvariant", myvariant.BaseURL, myvariant.RateLimit, func(rc *restclient.Client) { c.MyVariant = myvariant.New(rc) }},
		{"gnomad", gnomad.BaseURL, cfg.RateLimit, func(rc *restclient.Client) { c.Gnomad = gnomad.New(rc) }},
		{"alphafold", alphafold.BaseURL, cfg.RateLimit, func(rc *restclient.Client) { c.AlphaFold = alphafold.New(rc) }},
	} {
		rc, err := build(src.name, src.baseURL, src.rate)
		if err != nil {
			return nil, err
		}
		src.assign(rc)
	}
	return c, nil
}
