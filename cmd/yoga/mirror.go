package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/config"
	"github.com/mschirtzinger/yoga/internal/mirror"
	yogasync "github.com/mschirtzinger/yoga/internal/sync"
	"github.com/mschirtzinger/yoga/internal/telemetry"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var mirrorCmd = &cobra.Command{
	Use:     "mirror",
	GroupID: "sync",
	Short:   "Run a local server that accepts sync pushes",
	Long: `Run a reference server for the sync protocol in the foreground.

It accepts POST /syncYogaCourses and POST /syncYogaClasses, keeps the last
pushed copy of each table (GET /snapshot), and broadcasts every accepted
push to WebSocket clients on /ws. Point sync.base_url at it during
development. SIGHUP rotates the log file (log.file).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Mirror.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		rotateLogsOnHangup(ctx)

		shutdown, err := telemetry.Setup(ctx, "yoga-mirror", cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()

		logger := logs.Logger("mirror")
		server, err := mirror.NewServer(&mirror.Config{
			Addr:         cfg.Mirror.Addr,
			SnapshotPath: cfg.Mirror.SnapshotPath,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		config.Watch(v, logger, func(updated *config.Config) {
			if updated.Mirror != cfg.Mirror {
				logger.Println("Mirror settings changed; restart the mirror to apply them")
			}
		})

		if err := server.Start(); err != nil {
			return err
		}

		fmt.Printf("%s Mirror server listening on %s\n", ui.RenderAccent("🚀"), server.Addr())
		fmt.Printf("   Push endpoints: %s, %s\n", yogasync.CoursesPath, yogasync.ClassesPath)
		fmt.Printf("   WebSocket: ws://%s/ws\n", server.Addr())
		if cfg.Mirror.SnapshotPath != "" {
			fmt.Printf("   Snapshot file: %s\n", cfg.Mirror.SnapshotPath)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		<-ctx.Done()
		return server.Stop()
	},
}

func init() {
	mirrorCmd.Flags().String("addr", "", "listen address (overrides mirror.addr)")
	rootCmd.AddCommand(mirrorCmd)
}
