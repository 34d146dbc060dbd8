package main

import (
	"context"

	"github.com/spf13/cobra"

	"loadctl/internal/errs"
	"loadctl/internal/pipeline"
)

func newTruncateCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Empty every mapped destination table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errs.Errorf(errs.ConfigError, "truncate", "refusing to truncate without --yes")
			}
			return a.runPipeline(cmd.Context(), cmd.Name(), func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, error) {
				ts, err := p.Truncate(ctx)
				return &pipeline.Result{Truncations: ts}, err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that every mapped table may be emptied")
	return cmd
}
