package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/genescout/genescout/internal/pipeline"
)

func newIntegrateCmd() *cobra.Command {
	return stageCommand("integrate", "Join all stage tables into the master table and report",
		func(r *pipeline.Runner) func(context.Context) error { return r.Integrate })
}
