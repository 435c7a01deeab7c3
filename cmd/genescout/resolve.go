package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/gene"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <gene-symbol>",
		Short: "Resolve a gene symbol and save its profile",
		Long: `Look up a human gene symbol in Ensembl and UniProt and save the resolved
profile (coordinates, canonical transcript, protein accession) for the
other commands to use.`,
		Example: `  genescout resolve SESN2
  genescout resolve BRCA1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			profile, err := gene.Resolve(cmd.Context(), a.clients.EnsemblREST, a.clients.UniProtREST, args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if err := profile.Save(a.paths.GeneProfile()); err != nil {
				return err
			}

			fmt.Printf("Gene:                 %s (%s)\n", profile.Symbol, profile.EnsemblID)
			fmt.Printf("Region:               %s\n", profile.Region())
			fmt.Printf("Canonical transcript: %s\n", profile.CanonicalTranscript)
			fmt.Printf("UniProt:              %s (%d aa)\n", profile.UniProtID, profile.ProteinLength)
			fmt.Printf("Profile saved to %s\n", a.paths.GeneProfile())
			return nil
		},
	}
}
