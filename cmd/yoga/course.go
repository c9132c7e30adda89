package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/yoga/internal/schema"
	"github.com/mschirtzinger/yoga/internal/ui"
)

var courseCmd = &cobra.Command{
	Use:     "course",
	GroupID: "data",
	Short:   "Manage yoga courses",
	Long: `Manage yoga courses.

A course is a weekly slot: a day of the week, a start time, capacity,
duration in minutes, price and type of class. Class sessions are dated
occurrences of a course.`,
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all courses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			courses, err := a.studio.Store().ListCourses(cmd.Context())
			if err != nil {
				return err
			}
			if len(courses) == 0 && cfg.Output.Format == ui.FormatTable {
				fmt.Printf("%s No courses yet. Add one with 'yoga course add'.\n", ui.RenderWarn("⚠"))
				return nil
			}
			return ui.Print(os.Stdout, cfg.Output.Format, courses, func(w io.Writer) {
				ui.CourseTable(w, courses)
			})
		})
	},
}

var courseShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a course and its class sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			course, err := a.studio.Store().GetCourse(cmd.Context(), id)
			if err != nil {
				return err
			}
			classes, err := a.studio.Store().ListClassesByCourse(cmd.Context(), id)
			if err != nil {
				return err
			}

			view := struct {
				Course  *schema.Course         `json:"course" yaml:"course"`
				Classes []*schema.ClassSession `json:"classes" yaml:"classes"`
			}{course, classes}

			return ui.Print(os.Stdout, cfg.Output.Format, view, func(w io.Writer) {
				fmt.Fprintf(w, "\n%s %s\n\n", ui.RenderAccent("🧘"), ui.RenderBold(course.Label()))
				fmt.Fprintf(w, "ID: %d\n", course.ID)
				fmt.Fprintf(w, "Capacity: %s\n", course.Capacity)
				fmt.Fprintf(w, "Duration: %s min\n", course.Duration)
				fmt.Fprintf(w, "Price: %s\n", course.Price)
				if course.Description != nil {
					fmt.Fprintf(w, "Description: %s\n", *course.Description)
				}
				fmt.Fprintf(w, "\nClasses (%d):\n", len(classes))
				if len(classes) > 0 {
					ui.ClassTable(w, classes)
				}
				fmt.Fprintln(w)
			})
		})
	},
}

var courseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a course",
	Example: `  yoga course add --day monday --time 9:00 --capacity 20 --duration 60 --price 15 --type "Flow Yoga"
  yoga course add -i`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		course := &schema.Course{}
		if err := fillCourse(cmd, course); err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			id, err := a.studio.AddCourse(cmd.Context(), course)
			if err != nil {
				return err
			}
			fmt.Printf("%s Added course %d (%s)\n", ui.RenderPass("✓"), id, course.Label())
			return nil
		})
	},
}

var courseEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a course",
	Long: `Edit a course. Only the flags given are changed; with -i every field
is offered in a form prefilled with the current values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course", args[0])
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			course, err := a.studio.Store().GetCourse(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := fillCourse(cmd, course); err != nil {
				return err
			}
			if err := a.studio.EditCourse(cmd.Context(), course); err != nil {
				return err
			}
			fmt.Printf("%s Updated course %d (%s)\n", ui.RenderPass("✓"), id, course.Label())
			return nil
		})
	},
}

var courseDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a course and all of its class sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course", args[0])
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			course, err := a.studio.Store().GetCourse(cmd.Context(), id)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Delete course %d (%s) and its classes?", id, course.Label()))
			if err != nil || !ok {
				return err
			}
			if err := a.studio.RemoveCourse(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("%s Deleted course %d\n", ui.RenderPass("✓"), id)
			return nil
		})
	},
}

var courseDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every course and class session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ok, err := confirm(cmd, "Delete ALL courses and classes?")
			if err != nil || !ok {
				return err
			}
			if err := a.studio.RemoveAllCourses(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("%s Deleted all courses\n", ui.RenderPass("✓"))
			return nil
		})
	},
}

// fillCourse applies the changed flags to c, or runs the form with -i.
func fillCourse(cmd *cobra.Command, c *schema.Course) error {
	flags := cmd.Flags()

	if interactive, _ := flags.GetBool("interactive"); interactive {
		if !ui.IsInteractive() {
			return fmt.Errorf("--interactive needs a terminal")
		}
		return ui.CourseForm(c)
	}

	if flags.Changed("day") {
		s, _ := flags.GetString("day")
		day, err := schema.ParseWeekday(s)
		if err != nil {
			return err
		}
		c.DayOfWeek = day
	}
	if flags.Changed("time") {
		s, _ := flags.GetString("time")
		normalized, err := schema.NormalizeTime(s)
		if err != nil {
			return err
		}
		c.Time = normalized
	}
	for flag, field := range map[string]*string{
		"capacity": &c.Capacity,
		"duration": &c.Duration,
		"price":    &c.Price,
		"type":     &c.ClassType,
	} {
		if flags.Changed(flag) {
			s, _ := flags.GetString(flag)
			*field = strings.TrimSpace(s)
		}
	}
	if flags.Changed("description") {
		s, _ := flags.GetString("description")
		if strings.TrimSpace(s) == "" {
			c.Description = nil
		} else {
			c.Description = &s
		}
	}

	return c.Validate()
}

func addCourseFlags(cmd *cobra.Command) {
	cmd.Flags().String("day", "", "day of the week (Monday..Sunday)")
	cmd.Flags().String("time", "", "start time, HH:MM")
	cmd.Flags().String("capacity", "", "number of places")
	cmd.Flags().String("duration", "", "duration in minutes")
	cmd.Flags().String("price", "", "price per class")
	cmd.Flags().String("type", "", "type of class ("+strings.Join(schema.ClassTypes, ", ")+")")
	cmd.Flags().String("description", "", "optional description")
	cmd.Flags().BoolP("interactive", "i", false, "fill the course in a form")
}

// confirm asks before destructive commands unless --yes was given.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if !ui.IsInteractive() {
		return false, fmt.Errorf("refusing to delete without --yes on a non-interactive terminal")
	}
	ok, err := ui.Confirm(question)
	if err == nil && !ok {
		fmt.Println("Cancelled")
	}
	return ok, err
}

func init() {
	addCourseFlags(courseAddCmd)
	addCourseFlags(courseEditCmd)
	courseDeleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	courseDeleteAllCmd.Flags().BoolP("yes", "y", false, "skip confirmation")

	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseShowCmd)
	courseCmd.AddCommand(courseAddCmd)
	courseCmd.AddCommand(courseEditCmd)
	courseCmd.AddCommand(courseDeleteCmd)
	courseCmd.AddCommand(courseDeleteAllCmd)
	rootCmd.AddCommand(courseCmd)
}
