package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:       "sync [courses|classes]",
	GroupID:   "sync",
	Short:     "Push the local tables to the remote server now",
	ValidArgs: []string{"courses", "classes"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	Long: `Push the whole course and/or class table to sync.base_url and wait for
the server to answer.

Every change already triggers a background push; use this to resend after
the server was unreachable, or to check connectivity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Sync.BaseURL == "" {
			return fmt.Errorf("sync.base_url is not set")
		}

		tables := []string{"courses", "classes"}
		if len(args) == 1 {
			tables = args
		}

		if background, _ := cmd.Flags().GetBool("background"); background {
			if len(args) == 1 {
				return fmt.Errorf("--background always pushes both tables")
			}
			return withApp(cmd.Context(), func(a *app) error {
				// Same as an app launch: both pushes are queued and the
				// outcome is only logged.
				a.studio.Startup()
				fmt.Printf("%s Queued courses and classes for %s\n", ui.RenderAccent("🔄"), cfg.Sync.BaseURL)
				return nil
			})
		}

		return withApp(cmd.Context(), func(a *app) error {
			fmt.Printf("%s Pushing %v to %s...\n", ui.RenderAccent("🔄"), tables, cfg.Sync.BaseURL)

			failed := 0
			for _, table := range tables {
				var push func(context.Context) error
				switch table {
				case "courses":
					push = a.client.PushCourses
				case "classes":
					push = a.client.PushClasses
				}
				if err := push(cmd.Context()); err != nil {
					fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderFail("✗"), table, err)
					failed++
					continue
				}
				fmt.Printf("%s %s synced\n", ui.RenderPass("✓"), table)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pushes failed", failed, len(tables))
			}
			return nil
		})
	},
}

func init() {
	syncCmd.Flags().Bool("background", false, "queue both pushes and only log the outcome")
	rootCmd.AddCommand(syncCmd)
}
