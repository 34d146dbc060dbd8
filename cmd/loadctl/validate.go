package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loadctl/internal/config"
	"loadctl/internal/errs"
	"loadctl/internal/logging"
	"loadctl/internal/mapping"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check settings and the table mapping without connecting anywhere",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			issues := config.Validate(*a.settings)
			for _, iss := range issues {
				fmt.Fprintln(a.stdout, iss.Error())
			}
			m, mapErr := mapping.Load(a.settings.Mapping.Path)
			if mapErr != nil {
				fmt.Fprintf(a.stdout, "error at mapping: %s\n", logging.SanitizeError(mapErr))
			}
			if config.HasErrors(issues) || mapErr != nil {
				return errs.Errorf(errs.ConfigError, "validate", "settings or mapping are invalid")
			}
			fmt.Fprintf(a.stdout, "ok: %d table(s) mapped, warehouse %s, blob %s\n",
				len(m.Tables), a.settings.Warehouse.Kind, a.settings.Blob.Kind)
			return nil
		},
	}
}
