package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/app"
	"github.com/spec-kit/property-market/internal/config"
	"github.com/spec-kit/property-market/internal/observability"
)

var (
	dsn      string
	logLevel string
	appCtx   *app.Container
)

// Execute runs the operator CLI.
func Execute() error {
	root := &cobra.Command{
		Use:          "marketctl",
		Short:        "Operator tooling for the property marketplace",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dsn != "" {
				cfg.Postgres.DSN = dsn
			}
			if logLevel != "" {
				cfg.Logger.Level = logLevel
			}
			// operator commands never rely on the listing cache
			cfg.Redis.Addr = ""

			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return err
			}
			appCtx, err = app.Build(cmd.Context(), cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx == nil {
				return
			}
			appCtx.Close()
			_ = appCtx.Logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN (default $POSTGRES_DSN)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL)")

	root.AddCommand(migrateCmd(), reconcileCmd(), fraudCmd())
	return root.Execute()
}

func warnInMemory(cmd *cobra.Command) {
	if appCtx.Postgres.PoolHandle() == nil {
		appCtx.Logger.Warn("no database configured; operating on an empty in-memory store",
			zap.String("command", cmd.Name()))
	}
}
