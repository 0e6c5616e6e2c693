package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/wayfinder/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wayfinder: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	opts := &app.Options{}

	root := &cobra.Command{
		Use:   "wayfinder",
		Short: "Select, sync and archive game waypoints",
		Long: `wayfinder follows the game's waypoint list and lets you pick which
waypoints to act on. Without a subcommand it opens the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), *opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/wayfinder/config.toml)")
	root.PersistentFlags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/wayfinder/prefs.toml)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newExportCommand(opts), newImportCommand(opts))
	return root
}

func newExportCommand(opts *app.Options) *cobra.Command {
	eo := app.ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current waypoint list to the configured archive",
		Example: `
wayfinder export
wayfinder export --pinned
WAYFINDER_EXPORT_FORMAT=yaml wayfinder export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := *opts
			o.Console = cmd.ErrOrStderr()
			report, err := app.Export(cmd.Context(), o, eo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export: %s\n", report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&eo.PinnedOnly, "pinned", false, "only export pinned waypoints")
	return cmd
}

func newImportCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "import [source]",
		Short: "Apply waypoints from an archive and send them to the game",
		Long: `Import reads a file written by export (json, json.gz or yaml), or a
world name when the archive is sqlite or postgres. Without a source the
configured import_path is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			o := *opts
			o.Console = cmd.ErrOrStderr()
			report, err := app.Import(cmd.Context(), o, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "import: %s\n", report)
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d waypoints were not imported", n)
			}
			return nil
		},
	}
}
