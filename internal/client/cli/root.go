package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/restodash/internal/buildinfo"
	"github.com/dmitrijs2005/restodash/internal/client/config"
	"github.com/dmitrijs2005/restodash/internal/client/storage"
	"github.com/dmitrijs2005/restodash/internal/telemetry"
)

const serviceName = "restodash"

// NewRootCmd builds the restodash command tree. Without a subcommand it runs
// the interactive shell.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "restodash",
		Short:        "Restaurant dashboard client",
		Long:         "restodash is a terminal client for the restaurant dashboard API: sign in, browse pages and manage expense types.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Run(ctx)
			})
		},
	}
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewSettingsCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// NewSettingsCmd creates the "settings" subcommand group. It works offline.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change dashboard preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(cmd, func(_ context.Context, a *App) error {
				printSettings(a.out, a.prefs.Get(), a.surface)
				return nil
			})
		},
	}

	var raw bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(cmd, func(ctx context.Context, a *App) error {
				if raw {
					return printStoredSettings(ctx, a.out, a.db.Bucket(storage.NamespacePreferences))
				}
				printSettings(a.out, a.prefs.Get(), a.surface)
				return nil
			})
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "print the stored entries as saved on disk")
	cmd.AddCommand(show)
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPreferences(cmd, func(ctx context.Context, a *App) error {
				return setSetting(ctx, a.out, a.prefs, args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(cmd, func(ctx context.Context, a *App) error {
				return resetSettings(ctx, a.out, a.prefs)
			})
		},
	})
	return cmd
}

// NewLogoutCmd creates the "logout" subcommand, which forgets the stored
// session without contacting the server.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				defer a.Close()
				a.session.Logout(ctx)
				fmt.Fprintln(a.out, "Logged out")
				return nil
			})
		},
	}
}

// NewVersionCmd creates the "version" subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

// withApp loads the configuration from cmd's flags, installs tracing and
// hands a new App to fn. fn owns closing the App.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, buildinfo.Version(), cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()

	a, err := NewApp(ctx, cfg, Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	return fn(ctx, a)
}

func withPreferences(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	return withApp(cmd, func(ctx context.Context, a *App) error {
		defer a.Close()
		if err := a.prefs.Load(ctx); err != nil {
			a.log.Warn(ctx, "using default preferences", "error", err)
		}
		return fn(ctx, a)
	})
}
