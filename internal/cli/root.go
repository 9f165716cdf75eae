// Package cli implements fachactl, the operator command line for OnlyFachas.
// It talks to the same store as the API, so changes apply without a restart.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/config"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/database"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

// Env is what every command needs: configuration and an open store
type Env struct {
	Config *config.Config
	Store  store.Store
	Logger *slog.Logger
	close  func()
}

func (e *Env) Close() {
	if e.close != nil {
		e.close()
	}
}

// EnvLoader builds the Env on first use
type EnvLoader func(ctx context.Context) (*Env, error)

// LoadEnv reads the environment and opens the configured store
func LoadEnv(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Environment)

	st, closeStore, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Store: st, Logger: logger, close: closeStore}, nil
}

// NewRootCommand assembles fachactl. load is called lazily by each subcommand.
func NewRootCommand(load EnvLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "fachactl",
		Short: "Operator tool for OnlyFachas",
		Long: `fachactl flips the emergency switches, clears the data kept for a client
and issues operator tokens for the admin API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newEmergencyCommand(load))
	root.AddCommand(newDataCommand(load))
	root.AddCommand(newTokenCommand(load))
	return root
}

// Execute runs fachactl against the real environment
func Execute() error {
	return NewRootCommand(LoadEnv).Execute()
}

func withEnv(cmd *cobra.Command, load EnvLoader, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := load(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	return fn(ctx, env)
}
