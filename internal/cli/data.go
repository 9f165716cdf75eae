package cli

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/audit"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func newDataCommand(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the data kept per client",
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear <client-id>",
		Short: "Delete cooldown, last result, hourly quota and leaderboard of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID := args[0]
			if !clientIDPattern.MatchString(clientID) {
				return fmt.Errorf("malformed client id %q", clientID)
			}
			if !yes {
				return fmt.Errorf("refusing to delete data of %s without --yes", clientID)
			}

			return withEnv(cmd, load, func(ctx context.Context, env *Env) error {
				keys := store.ClientKeys(clientID)
				if err := env.Store.Delete(ctx, keys...); err != nil {
					return fmt.Errorf("clear client %s: %w", clientID, err)
				}

				_ = audit.NewSlogLogger(env.Logger).Log(ctx, audit.Event{
					ClientID:  clientID,
					EventType: audit.EventDataCleared,
					Success:   true,
					Metadata:  map[string]string{"source": "fachactl"},
				})
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "cleared %d keys for %s\n", len(keys), clientID)
				return err
			})
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	cmd.AddCommand(clearCmd)

	return cmd
}
