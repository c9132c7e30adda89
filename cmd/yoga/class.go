package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/schema"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var classCmd = &cobra.Command{
	Use:     "class",
	GroupID: "data",
	Short:   "Manage class sessions",
	Long: `Manage class sessions: dated occurrences of a course with a teacher.

Dates are stored as MM/DD/YYYY and must fall on the course's day of the
week. Input also accepts YYYY-MM-DD and phrases like "next monday".`,
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List class sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetInt64("course")

		return withApp(cmd.Context(), func(a *app) error {
			var (
				classes []*schema.ClassSession
				err     error
			)
			if courseID > 0 {
				classes, err = a.studio.Store().ListClassesByCourse(cmd.Context(), courseID)
			} else {
				classes, err = a.studio.Store().ListAllClasses(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printClasses(classes)
		})
	},
}

var classShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a class session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("class", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			class, err := a.studio.Store().GetClass(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printClasses([]*schema.ClassSession{class})
		})
	},
}

var classAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a class session to a course",
	Example: `  yoga class add --course 1 --date 03/10/2025 --teacher Ana
  yoga class add --course 1 --date "next monday" --teacher Ana --comments "bring blocks"
  yoga class add --course 1 -i`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetInt64("course")
		if courseID <= 0 {
			return fmt.Errorf("--course is required")
		}

		return withApp(cmd.Context(), func(a *app) error {
			course, err := a.studio.Store().GetCourse(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			class := &schema.ClassSession{CourseID: courseID}
			if err := fillClass(cmd, class, course); err != nil {
				return err
			}

			id, err := a.studio.AddClass(cmd.Context(), class)
			if err != nil {
				return err
			}
			fmt.Printf("%s Added class %d on %s with %s\n", ui.RenderPass("✓"), id, class.Date, class.Teacher)
			return nil
		})
	},
}

var classEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a class session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("class", args[0])
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			class, err := a.studio.Store().GetClass(cmd.Context(), id)
			if err != nil {
				return err
			}
			if courseID, _ := cmd.Flags().GetInt64("course"); courseID > 0 {
				class.CourseID = courseID
			}
			course, err := a.studio.Store().GetCourse(cmd.Context(), class.CourseID)
			if err != nil {
				return err
			}
			if err := fillClass(cmd, class, course); err != nil {
				return err
			}
			if err := a.studio.EditClass(cmd.Context(), class); err != nil {
				return err
			}
			fmt.Printf("%s Updated class %d\n", ui.RenderPass("✓"), id)
			return nil
		})
	},
}

var classDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a class session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("class", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			class, err := a.studio.Store().GetClass(cmd.Context(), id)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Delete class %d (%s, %s)?", id, class.Date, class.Teacher))
			if err != nil || !ok {
				return err
			}
			if err := a.studio.RemoveClass(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("%s Deleted class %d\n", ui.RenderPass("✓"), id)
			return nil
		})
	},
}

var classSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search a course's sessions by teacher or date",
	Long: `Search the sessions of one course.

--teacher matches a case-sensitive substring of the teacher name; an empty
value matches every session. --date matches an exact date. Given both,
sessions must match both.`,
	Example: `  yoga class search --course 1 --teacher An
  yoga class search --course 1 --date 03/10/2025`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		courseID, _ := flags.GetInt64("course")
		if courseID <= 0 {
			return fmt.Errorf("--course is required")
		}
		teacher, _ := flags.GetString("teacher")

		date := ""
		if flags.Changed("date") {
			s, _ := flags.GetString("date")
			resolved, err := schema.ResolveDate(s, time.Now())
			if err != nil {
				return err
			}
			date = resolved
		}

		return withApp(cmd.Context(), func(a *app) error {
			var (
				classes []*schema.ClassSession
				err     error
			)
			if date != "" && !flags.Changed("teacher") {
				classes, err = a.studio.Store().FindClassesByDate(cmd.Context(), courseID, date)
			} else {
				classes, err = a.studio.Store().FindClassesByTeacher(cmd.Context(), courseID, teacher)
			}
			if err != nil {
				return err
			}

			if date != "" && flags.Changed("teacher") {
				matched := classes[:0]
				for _, c := range classes {
					if c.Date == date {
						matched = append(matched, c)
					}
				}
				classes = matched
			}
			return printClasses(classes)
		})
	},
}

var classDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Show the next dates a course runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetInt64("course")
		if courseID <= 0 {
			return fmt.Errorf("--course is required")
		}
		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			return fmt.Errorf("--count must be positive (got %d)", count)
		}

		return withApp(cmd.Context(), func(a *app) error {
			course, err := a.studio.Store().GetCourse(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			dates, err := schema.UpcomingDates(course.DayOfWeek, time.Now(), count)
			if err != nil {
				return err
			}
			return ui.Print(os.Stdout, cfg.Output.Format, dates, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("📅"), course.Label())
				for _, d := range dates {
					fmt.Fprintf(w, "   %s\n", d)
				}
			})
		})
	},
}

func printClasses(classes []*schema.ClassSession) error {
	if len(classes) == 0 && cfg.Output.Format == ui.FormatTable {
		fmt.Println(ui.RenderMuted("No classes found"))
		return nil
	}
	return ui.Print(os.Stdout, cfg.Output.Format, classes, func(w io.Writer) {
		ui.ClassTable(w, classes)
	})
}

// fillClass applies the changed flags to c, or runs the form with -i.
func fillClass(cmd *cobra.Command, c *schema.ClassSession, course *schema.Course) error {
	flags := cmd.Flags()
	now := time.Now()

	if interactive, _ := flags.GetBool("interactive"); interactive {
		if !ui.IsInteractive() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		return ui.ClassForm(c, course, now)
	}

	if flags.Changed("date") {
		s, _ := flags.GetString("date")
		resolved, err := schema.ResolveDate(s, now)
		if err != nil {
			return err
		}
		c.Date = resolved
	}
	if flags.Changed("teacher") {
		s, _ := flags.GetString("teacher")
		c.Teacher = strings.TrimSpace(s)
	}
	if flags.Changed("comments") {
		s, _ := flags.GetString("comments")
		if strings.TrimSpace(s) == "" {
			c.Comments = nil
		} else {
			c.Comments = &s
		}
	}

	return c.Validate()
}

func init() {
	classListCmd.Flags().Int64("course", 0, "only sessions of this course")

	for _, cmd := range []*cobra.Command{classAddCmd, classEditCmd} {
		cmd.Flags().Int64("course", 0, "course id")
		cmd.Flags().String("date", "", "date, MM/DD/YYYY or natural language")
		cmd.Flags().String("teacher", "", "teacher name")
		cmd.Flags().String("comments", "", "optional comments")
		cmd.Flags().BoolP("interactive", "i", false, "fill the session in a form")
	}

	classDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation")

	classSearchCmd.Flags().Int64("course", 0, "course id")
	classSearchCmd.Flags().String("teacher", "", "teacher name substring")
	classSearchCmd.Flags().String("date", "", "exact date")

	classDatesCmd.Flags().Int64("course", 0, "course id")
	classDatesCmd.Flags().IntP("count", "n", 8, "number of dates")

	classCmd.AddCommand(classListCmd)
	classCmd.AddCommand(classShowCmd)
	classCmd.AddCommand(classAddCmd)
	classCmd.AddCommand(classEditCmd)
	classCmd.AddCommand(classDeleteCmd)
	classCmd.AddCommand(classSearchCmd)
	classCmd.AddCommand(classDatesCmd)
	rootCmd.AddCommand(classCmd)
}
