package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/ui"
)

type statusView struct {
	Database string `json:"database" yaml:"database"`
	Size     int64  `json:"sizeBytes" yaml:"size_bytes"`
	Modified string `json:"modified" yaml:"modified"`
	Courses  int    `json:"courses" yaml:"courses"`
	Classes  int    `json:"classes" yaml:"classes"`
	SyncURL  string `json:"syncUrl" yaml:"sync_url"`
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "setup",
	Short:   "Show database location, size and record counts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.DB.Path); os.IsNotExist(err) {
			fmt.Printf("\n%s Database not created yet\n", ui.RenderWarn("⚠"))
			fmt.Printf("   It will be created at %s by the first command that writes\n\n", cfg.DB.Path)
			return nil
		}

		return withApp(cmd.Context(), func(a *app) error {
			courses, classes, err := a.studio.Store().Counts(cmd.Context())
			if err != nil {
				return err
			}
			info, err := os.Stat(a.studio.Store().Path())
			if err != nil {
				return fmt.Errorf("failed to stat database: %w", err)
			}

			view := statusView{
				Database: a.studio.Store().Path(),
				Size:     info.Size(),
				Modified: info.ModTime().Format("2006-01-02 15:04:05"),
				Courses:  courses,
				Classes:  classes,
				SyncURL:  cfg.Sync.BaseURL,
			}

			return ui.Print(os.Stdout, cfg.Output.Format, view, func(w io.Writer) {
				syncURL := view.SyncURL
				if syncURL == "" {
					syncURL = ui.RenderWarn("disabled")
				}
				fmt.Fprintf(w, "\n%s Yoga Studio Status\n\n", ui.RenderAccent("📊"))
				fmt.Fprintf(w, "Location: %s\n", view.Database)
				fmt.Fprintf(w, "Size: %s\n", formatSize(view.Size))
				fmt.Fprintf(w, "Courses: %d\n", view.Courses)
				fmt.Fprintf(w, "Classes: %d\n", view.Classes)
				fmt.Fprintf(w, "Sync: %s\n", syncURL)
				fmt.Fprintf(w, "Modified: %s\n\n", view.Modified)
			})
		})
	},
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
