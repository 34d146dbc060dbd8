package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loadctl/internal/logging"
)

func newCleanCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Write a cleaned copy of every mapped source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, closeFn, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			var failed int
			for _, tm := range d.mapping.Tables {
				if err := ctx.Err(); err != nil {
					return err
				}
				ds, err := d.reader.Read(ctx, tm)
				if err != nil {
					failed++
					a.logger.Error("clean failed", zap.String("file", tm.SourceFileName), zap.String("error", logging.SanitizeError(err)))
					fmt.Fprintf(a.stdout, "%s\tfailed\t%s\n", tm.SourceFileName, logging.SanitizeError(err))
					continue
				}
				path, err := cleanedPath(out, ds.Object)
				if err != nil {
					failed++
					a.logger.Error("clean failed", zap.String("file", tm.SourceFileName), zap.Error(err))
					fmt.Fprintf(a.stdout, "%s\tfailed\t%v\n", tm.SourceFileName, err)
					continue
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("clean: %w", err)
				}
				if err := os.WriteFile(path, ds.Bytes(), 0o644); err != nil {
					return fmt.Errorf("clean: %w", err)
				}
				fmt.Fprintf(a.stdout, "%s\t%s\t%d rows, %d dropped\n", tm.SourceFileName, path, len(ds.Rows), ds.Stats.Dropped())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(d.mapping.Tables))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "cleaned", "directory the cleaned files are written to")
	return cmd
}

// cleanedPath places object under out. Object names that are absolute or
// climb out of out with ".." are rejected.
func cleanedPath(out, object string) (string, error) {
	rel := filepath.FromSlash(object)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object name %q is not a local path", object)
	}
	return filepath.Join(out, rel), nil
}
