package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/gene"
	"github.com/genescout/genescout/internal/pipeline"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
	noCache bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genescout",
		Short: "Aggregate variant, QTL, GWAS, and structure evidence for one gene",
		Long: `genescout fetches genomic variants for a human gene and joins them with
population frequencies (gnomAD), tissue eQTLs (GTEx), phenotype
associations (GWAS Catalog), VEP consequence annotations, protein
domains (UniProt), and predicted structure confidence (AlphaFold) into
one master table and summary report.

Responses are cached on disk, so reruns only hit the APIs for data not
seen before.`,
		Example: `  genescout resolve SESN2        # look up the gene and save its profile
  genescout run                  # run every stage for the saved gene
  genescout fetch variants       # run a single stage
  genescout integrate            # rebuild the master table and report`,
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.genescout.yaml)")
	cmd.PersistentFlags().String("data-dir", "", "data directory for caches and outputs")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	viper.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(
		newResolveCmd(),
		newFetchCmd(),
		newAnnotateCmd(),
		newDomainsCmd(),
		newIntegrateCmd(),
		newStructureCmd(),
		newRunCmd(),
		newConfigCmd(),
	)
	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".genescout")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GENESCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("data_dir", "data")
	viper.SetDefault("api.rate_limit", 15)
	viper.SetDefault("api.retry_attempts", 3)
	viper.SetDefault("api.retry_delay_seconds", 1)
	viper.SetDefault("api.cache_responses", true)

	_ = viper.ReadInConfig()
}

func buildLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// app bundles what every command needs: the data layout, the source
// clients, and the logger.
type app struct {
	paths   pipeline.Paths
	clients *pipeline.Clients
	logger  *zap.Logger
}

func newApp() (*app, error) {
	logger := buildLogger()

	paths := pipeline.NewPaths(viper.GetString("data_dir"))
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	clients, err := pipeline.NewClients(pipeline.ClientConfig{
		CacheDir:      paths.CacheDir(),
		CacheEnabled:  viper.GetBool("api.cache_responses") && !noCache,
		RateLimit:     viper.GetFloat64("api.rate_limit"),
		RetryAttempts: viper.GetInt("api.retry_attempts"),
		RetryDelay:    time.Duration(viper.GetFloat64("api.retry_delay_seconds") * float64(time.Second)),
		UserAgent:     "genescout/" + version,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{paths: paths, clients: clients, logger: logger}, nil
}

// runner loads the saved gene profile and builds the stage runner.
func (a *app) runner() (*pipeline.Runner, error) {
	profile, err := gene.Load(a.paths.GeneProfile())
	if err != nil {
		return nil, fmt.Errorf("no gene profile at %s (run \"genescout resolve <symbol>\" first): %w",
			a.paths.GeneProfile(), err)
	}
	r := pipeline.NewRunner(a.paths, a.clients, profile)
	r.SetLogger(a.logger)
	return r, nil
}

// stageCommand builds a cobra command that runs one pipeline stage for
// the saved gene profile.
func stageCommand(use, short string, pick func(*pipeline.Runner) func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			r, err := a.runner()
			if err != nil {
				return err
			}
			return pick(r)(cmd.Context())
		},
	}
}
