package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/migrate"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export [FILE]",
	GroupID: "setup",
	Short:   "Write all courses and classes to a JSONL backup",
	Long: `Write all courses and classes to a JSONL backup, one record per line,
courses first. Without FILE (or with "-") the backup goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if len(args) == 0 || args[0] == "-" {
				_, err := migrate.Export(cmd.Context(), a.studio.Store(), os.Stdout)
				return err
			}

			result, err := migrate.ExportFile(cmd.Context(), a.studio.Store(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s Exported %d courses and %d classes to %s\n",
				ui.RenderPass("✓"), result.Courses, result.Classes, args[0])
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:     "import FILE",
	GroupID: "setup",
	Short:   "Replace all data with a JSONL backup",
	Long: `Replace every course and class with the contents of a JSONL backup made
by 'yoga export'. Ids are kept. Both tables are pushed afterwards.

Bad lines are reported and skipped unless --strict is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := migrate.ImportOptions{From: args[0]}
		opts.DryRun, _ = flags.GetBool("dry-run")
		opts.Strict, _ = flags.GetBool("strict")
		opts.Backup, _ = flags.GetBool("backup")

		return withApp(cmd.Context(), func(a *app) error {
			result, err := migrate.Import(cmd.Context(), a.studio.Store(), a.studio, opts)
			if err != nil {
				return err
			}

			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderWarn("⚠"), msg)
			}
			if result.BackupCreated != "" {
				fmt.Printf("   Previous data saved to %s\n", result.BackupCreated)
			}
			verb := "Imported"
			if opts.DryRun {
				verb = "Would import"
			}
			fmt.Printf("%s %s %d courses and %d classes (%d lines skipped)\n",
				ui.RenderPass("✓"), verb, result.Courses, result.Classes, len(result.Errors))
			return nil
		})
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "validate the backup without changing anything")
	importCmd.Flags().Bool("strict", false, "fail on the first bad line")
	importCmd.Flags().Bool("backup", true, "export the current data next to FILE first")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
