package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/admin"
)

func newTokenCommand(load EnvLoader) *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a Bearer token for /v1/admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, load, func(ctx context.Context, env *Env) error {
				if ttl <= 0 {
					ttl = env.Config.AdminTokenTTL
				}
				jwtService := admin.NewJWTService(env.Config.AdminJWTSecret, env.Config.AdminJWTIssuer, ttl)

				token, err := jwtService.GenerateToken(operator, admin.RoleOperator)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "Who the token is for (logged on every change)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, ADMIN_TOKEN_TTL by default")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}
