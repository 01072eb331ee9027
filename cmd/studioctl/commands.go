package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studioapi/internal/app"
	"studioapi/internal/config"
	"studioapi/internal/logging"
	"studioapi/internal/service"
)

// cli carries state shared by every subcommand. Connections are opened by
// the commands that need them, after their own flags are checked.
type cli struct {
	timeout time.Duration
	cfg     *config.AppConfig
	logger  *zap.Logger

	loadConfig func() *config.AppConfig
	openStore  func(ctx context.Context, cfg *config.AppConfig) (*app.Store, error)
}

func newRootCmd() *cobra.Command {
	c := &cli{loadConfig: config.Load, openStore: app.OpenStore}

	root := &cobra.Command{
		Use:           "studioctl",
		Short:         "Maintenance commands for the studio backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 2*time.Minute, "Operation timeout")

	root.AddCommand(c.migrateCmd(), c.adminCmd(), c.pruneCmd())
	return root
}

func (c *cli) setup() error {
	c.cfg = c.loadConfig()
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(c.cfg.Log.Level, c.cfg.Log.Format, logging.WithLocation(c.cfg.Location()))
	if err != nil {
		return err
	}
	c.logger = logging.Component(logger, "studioctl")
	return nil
}

// withApp opens the store and builds the services for fn.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	if err := c.setup(); err != nil {
		return err
	}
	defer c.logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	store, err := c.openStore(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	a, err := app.New(ctx, c.cfg, c.logger, store)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables (Postgres) or indexes (Mongo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Store.Migrate(ctx, c.logger); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", a.Store.Driver)
				return nil
			})
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage dashboard administrators",
	}

	var in service.AdminInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				view, err := a.Auth.CreateAdmin(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", view.Email, view.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "Login email")
	create.Flags().StringVar(&in.Name, "name", "", "Display name")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password")

	cmd.AddCommand(create)
	return cmd
}

func (c *cli) pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune [kind...]",
		Short: "Delete the oldest records beyond each kind's retention limit",
		Long: `Delete the oldest records beyond each kind's retention limit, along with
their media. With no arguments every kind that has a limit is pruned.`,
		RunE: func(cmd *cobra.Command, kinds []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				pruned, err := a.Prune(ctx, kinds...)
				printPruned(cmd, pruned)
				return err
			})
		},
	}
}

func printPruned(cmd *cobra.Command, pruned map[string]int) {
	kinds := make([]string, 0, len(pruned))
	for k := range pruned {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: pruned %d\n", k, pruned[k])
	}
}
