package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
)

func fraudCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fraud [userId]",
		Short: "Mark an agent as fraud and remove their listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnInMemory(cmd)
			actor := events.Actor{Email: "marketctl", Role: domain.RoleAdmin}
			result, err := appCtx.Trust.MarkFraud(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as fraud: %d listing(s) deleted, %d offer(s) rejected\n",
				result.UserID, result.DeletedCount, result.RejectedOffers)
			return nil
		},
	}
	return cmd
}
