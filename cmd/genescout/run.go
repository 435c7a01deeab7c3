package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/gene"
	"github.com/genescout/genescout/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [gene-symbol]",
		Short: "Run every stage for a gene",
		Long: `Run the full pipeline: resolve the gene (when a symbol is given),
fetch variants and their frequency, eQTL, GWAS, annotation, domain, and
structure evidence, and integrate everything into the master table and
summary report. A lock in the data directory keeps concurrent runs from
interleaving outputs.`,
		Example: `  genescout run SESN2    # resolve and analyze SESN2
  genescout run          # rerun for the saved gene profile`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			var profile *gene.Profile
			if len(args) == 1 {
				profile, err = gene.Resolve(cmd.Context(), a.clients.EnsemblREST, a.clients.UniProtREST, args[0])
				if err != nil {
					return fmt.Errorf("resolve %s: %w", args[0], err)
				}
				if err := profile.Save(a.paths.GeneProfile()); err != nil {
					return err
				}
			} else {
				profile, err = gene.Load(a.paths.GeneProfile())
				if err != nil {
					return fmt.Errorf("no gene profile at %s (pass a gene symbol or run \"genescout resolve <symbol>\" first): %w",
						a.paths.GeneProfile(), err)
				}
			}

			r := pipeline.NewRunner(a.paths, a.clients, profile)
			r.SetLogger(a.logger)
			if err := r.RunAll(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Analysis complete for %s. Outputs in %s\n", profile.Symbol, a.paths.Outputs())
			return nil
		},
	}
}
