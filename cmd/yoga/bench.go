package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/loadtest"
	"github.com/mschirtzinger/yoga/internal/store"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "setup",
	Short:   "Measure query latency on a generated timetable",
	Long: `Seed a throwaway database with generated courses and classes, then run
concurrent readers against the listing and search queries and report
latency percentiles.

Your own database is never touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		courses, _ := flags.GetInt("courses")
		classes, _ := flags.GetInt("classes")
		readers, _ := flags.GetInt("readers")
		queries, _ := flags.GetInt("queries")
		keep, _ := flags.GetBool("keep")

		dir, err := os.MkdirTemp("", "yoga-bench-")
		if err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
		if !keep {
			defer os.RemoveAll(dir)
		}

		db, err := store.Open(filepath.Join(dir, "bench.db"))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		start := time.Now()
		fixture, err := loadtest.Seed(ctx, db, courses, classes)
		if err != nil {
			return err
		}
		if cfg.Output.Format == ui.FormatTable {
			fmt.Printf("%s Seeded %d courses and %d classes in %v\n",
				ui.RenderAccent("🌱"), len(fixture.CourseIDs), fixture.Classes, time.Since(start).Round(time.Millisecond))
		}

		stats, err := fixture.RunConcurrentQueries(ctx, readers, queries)
		if err != nil {
			return err
		}

		if err := ui.Print(os.Stdout, cfg.Output.Format, stats, stats.Fprint); err != nil {
			return err
		}
		if keep {
			fmt.Fprintf(os.Stderr, "%s Database kept at %s\n", ui.RenderMuted("ℹ"), db.Path())
		}
		if stats.Errors > 0 {
			return fmt.Errorf("%d queries failed", stats.Errors)
		}
		return nil
	},
}

func init() {
	benchCmd.Flags().Int("courses", 50, "courses to generate")
	benchCmd.Flags().Int("classes", 20, "weekly classes per course")
	benchCmd.Flags().Int("readers", 8, "concurrent readers")
	benchCmd.Flags().Int("queries", 100, "queries per reader")
	benchCmd.Flags().Bool("keep", false, "keep the generated database")
	rootCmd.AddCommand(benchCmd)
}
