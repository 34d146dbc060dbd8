package main

import (
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loadctl/internal/config"
	"loadctl/internal/errs"
	"loadctl/internal/logging"
)

// app carries the flags and the process-wide objects built from them.
type app struct {
	configPath  string
	mappingPath string
	logLevel    string
	stdout      io.Writer

	settings *config.Settings
	logger   *zap.Logger
	runID    string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "loadctl",
		Short:         "Load CSV objects from blob storage into a warehouse and verify row counts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "settings YAML file; environment and defaults apply when empty")
	pf.StringVar(&a.mappingPath, "mapping", "", "table mapping file (JSON or YAML); overrides mapping.path")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log.level")

	root.AddCommand(
		newRunCmd(a),
		newLoadCmd(a),
		newVerifyCmd(a),
		newCleanCmd(a),
		newTruncateCmd(a),
		newValidateCmd(a),
	)
	return root
}

// init reads settings, applies flag overrides and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	s, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.mappingPath != "" {
		s.Mapping.Path = a.mappingPath
	}
	if a.logLevel != "" {
		s.Log.Level = a.logLevel
	}
	a.settings = s

	logger, err := logging.New(s.Log.Level, s.Log.Format)
	if err != nil {
		return errs.E(errs.ConfigError, "build logger", err)
	}
	a.runID = uuid.NewString()
	a.logger = logger.With(zap.String("run_id", a.runID), zap.String("command", cmd.Name()))
	return nil
}
