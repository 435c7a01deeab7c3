package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/pipeline"
)

func newAnnotateCmd() *cobra.Command {
	return stageCommand("annotate", "Annotate coding variants with VEP consequences",
		func(r *pipeline.Runner) func(context.Context) error { return r.Annotate })
}

func newDomainsCmd() *cobra.Command {
	return stageCommand("domains", "Map annotated variants onto protein domains",
		func(r *pipeline.Runner) func(context.Context) error { return r.MapDomains })
}
