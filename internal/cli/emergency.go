package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/emergency"
)

func newEmergencyCommand(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency",
		Short: "Show or change maintenance mode, hourly quota and artificial delay",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(ctx context.Context, env *Env) error {
				controls := emergency.NewControls(env.Store, env.Config.EmergencyDefaults(), emergency.WithLogger(env.Logger))
				return printJSON(cmd, controls.Config(ctx))
			})
		},
	})

	var (
		maintenance bool
		maxPerHour  int
		delay       int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change some switches, keeping the rest as they are",
		Example: `  fachactl emergency set --maintenance=true
  fachactl emergency set --max-per-hour 3 --delay 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("maintenance") && !flags.Changed("max-per-hour") && !flags.Changed("delay") {
				return fmt.Errorf("nothing to set: pass --maintenance, --max-per-hour or --delay")
			}

			return withEnv(cmd, load, func(ctx context.Context, env *Env) error {
				controls := emergency.NewControls(env.Store, env.Config.EmergencyDefaults(), emergency.WithLogger(env.Logger))

				cfg := controls.Config(ctx)
				if flags.Changed("maintenance") {
					cfg.MaintenanceMode = maintenance
				}
				if flags.Changed("max-per-hour") {
					cfg.MaxRequestsPerHour = maxPerHour
				}
				if flags.Changed("delay") {
					cfg.RequestDelaySeconds = delay
				}

				if err := controls.Update(ctx, cfg); err != nil {
					return err
				}
				return printJSON(cmd, cfg)
			})
		},
	}
	set.Flags().BoolVar(&maintenance, "maintenance", false, "Reject every analysis with 503")
	set.Flags().IntVar(&maxPerHour, "max-per-hour", 0, "Analyses per client per hour, 0 for unlimited")
	set.Flags().IntVar(&delay, "delay", 0, "Seconds to wait before each analysis (0-60)")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop the stored document so the environment defaults apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(ctx context.Context, env *Env) error {
				controls := emergency.NewControls(env.Store, env.Config.EmergencyDefaults(), emergency.WithLogger(env.Logger))
				if err := controls.Reset(ctx); err != nil {
					return err
				}
				return printJSON(cmd, controls.Config(ctx))
			})
		},
	})

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
