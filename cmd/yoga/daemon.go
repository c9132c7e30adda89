package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/config"
	"github.com/mschirtzinger/yoga/internal/daemon"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the database and push every change (foreground)",
	Long: `Run the sync daemon in the foreground.

The daemon:
  1. Pushes both tables once on start
  2. Watches the database file and its WAL/journal
  3. Pushes both tables after each burst of writes (daemon.debounce)

SIGHUP rotates the log file (log.file).

Changes made by any process writing the database, including other yoga
commands run with --no-sync, reach the server this way.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Sync.BaseURL == "" {
			return fmt.Errorf("sync.base_url is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		rotateLogsOnHangup(ctx)

		return withApp(ctx, func(a *app) error {
			logger := logs.Logger("daemon")

			d, err := daemon.NewWithConfig(a.studio.Store().Path(), a.client, &daemon.Config{
				Debounce: cfg.Daemon.Debounce,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			config.Watch(v, logger, func(updated *config.Config) {
				if updated.Sync != cfg.Sync || updated.Daemon != cfg.Daemon {
					logger.Println("Sync settings changed; restart the daemon to apply them")
				}
			})

			fmt.Printf("%s Starting sync daemon...\n", ui.RenderAccent("🚀"))
			fmt.Printf("   Database: %s\n", a.studio.Store().Path())
			fmt.Printf("   Server: %s\n", cfg.Sync.BaseURL)
			fmt.Printf("\nPress Ctrl+C to stop\n\n")

			err = d.Start(ctx)
			fmt.Printf("\n%s Daemon stopped after %d pushes\n", ui.RenderMuted("■"), d.Syncs())
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
