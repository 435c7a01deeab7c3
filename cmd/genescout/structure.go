package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/pipeline"
)

func newStructureCmd() *cobra.Command {
	return stageCommand("structure", "Download the AlphaFold model and extract pLDDT scores",
		func(r *pipeline.Runner) func(context.Context) error { return r.FetchStructure })
}
