package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loadctl/internal/loader"
	"loadctl/internal/pipeline"
	"loadctl/internal/report"
	"loadctl/internal/verifier"
)

func newRunCmd(a *app) *cobra.Command {
	var opts pipeline.Options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load every mapped file and verify its table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPipeline(cmd.Context(), cmd.Name(), func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, error) {
				return p.Run(ctx, opts)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.TruncateFirst, "truncate-first", false, "empty every mapped table before loading")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every mapped file without verifying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPipeline(cmd.Context(), cmd.Name(), func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, error) {
				loads, err := p.LoadAll(ctx)
				return &pipeline.Result{Loads: loads}, err
			})
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare every mapped table's row count with its source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPipeline(cmd.Context(), cmd.Name(), func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, error) {
				vs, err := p.VerifyAll(ctx)
				return &pipeline.Result{Verifications: vs}, err
			})
		},
	}
}

// runPipeline opens the components, runs step and reports its result. The
// report is written even when step was interrupted.
func (a *app) runPipeline(ctx context.Context, command string, step func(context.Context, *pipeline.Pipeline) (*pipeline.Result, error)) error {
	started := time.Now()
	d, closeFn, err := a.open(ctx, true)
	if err != nil {
		return err
	}
	defer closeFn()

	res, runErr := step(ctx, d.pipeline)
	if res == nil {
		res = &pipeline.Result{}
	}
	if err := a.report(command, started, res); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return failures(res)
}

// report writes the JSON results document and prints the summary.
func (a *app) report(command string, started time.Time, res *pipeline.Result) error {
	r := report.New(a.runID, command, started, time.Now(), res)
	path, err := r.WriteJSON(a.settings.Report.Dir)
	if err != nil {
		return err
	}
	a.logger.Info("report written", zap.String("path", path))
	if err := r.WriteSummary(a.stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "report: %s\n", path)
	return err
}

// failures turns failed loads and unmatched tables into the command's error.
func failures(res *pipeline.Result) error {
	var failed, unmatched int
	for _, l := range res.Loads {
		if l.Status == loader.StatusFailed {
			failed++
		}
	}
	for _, v := range res.Verifications {
		if v.Status != verifier.StatusMatch {
			unmatched++
		}
	}
	for _, t := range res.Truncations {
		if t.Status == pipeline.TruncateFailed {
			failed++
		}
	}
	if failed == 0 && unmatched == 0 {
		return nil
	}
	return fmt.Errorf("%d step(s) failed, %d table(s) not matching", failed, unmatched)
}
