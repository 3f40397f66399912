package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func reconcileCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Link unreconciled payments to their offers once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			warnInMemory(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), appCtx.Config.Reconcile.Timeout())
			defer cancel()

			repaired, err := appCtx.Payments.Reconcile(ctx, limit)
			if err != nil {
				return err
			}
			appCtx.Logger.Info("reconcile finished", zap.Int("repaired", repaired))
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d payment(s)\n", repaired)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum payments to scan (default 100)")
	return cmd
}
