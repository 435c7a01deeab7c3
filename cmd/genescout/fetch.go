package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/pipeline"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch data from one upstream source",
		Example: `  genescout fetch gene         # gene, transcript, and protein records
  genescout fetch variants     # region variants from Ensembl
  genescout fetch frequencies  # gnomAD frequencies from MyVariant.info
  genescout fetch eqtl         # per-tissue eQTLs from GTEx
  genescout fetch gwas         # trait associations from the GWAS Catalog`,
	}

	cmd.AddCommand(
		stageCommand("gene", "Fetch gene, transcript, protein, and structure metadata",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchGeneInfo }),
		stageCommand("variants", "Fetch variants in the gene region",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchVariants }),
		stageCommand("frequencies", "Merge gnomAD population frequencies onto the variants",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchFrequencies }),
		stageCommand("eqtl", "Fetch per-tissue eQTL associations from GTEx",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchEQTL }),
		stageCommand("pqtl", "Write the pQTL placeholder table",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchPQTL }),
		stageCommand("gwas", "Fetch trait associations from the GWAS Catalog",
			func(r *pipeline.Runner) func(context.Context) error { return r.FetchGWAS }),
	)
	return cmd
}
