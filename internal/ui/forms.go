package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/mschirtzinger/yoga/internal/schema"
)

// CourseForm edits c in place. Fields start from c's current values, so
// the same form serves add and edit.
func CourseForm(c *schema.Course) error {
	day := string(c.DayOfWeek)
	if day == "" {
		day = string(schema.Monday)
	}
	classType := c.ClassType
	if classType == "" {
		classType = schema.ClassTypes[0]
	}
	description := deref(c.Description)

	days := make([]string, len(schema.Weekdays))
	for i, d := range schema.Weekdays {
		days[i] = string(d)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Day of the week").
				Options(huh.NewOptions(days...)...).
				Value(&day),
			huh.NewInput().
				Title("Time").
				Placeholder("9:00").
				Value(&c.Time).
				Validate(func(s string) error {
					_, _, err := schema.ParseTime(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Type of class").
				Options(huh.NewOptions(schema.ClassTypes...)...).
				Value(&classType),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Capacity").
				Value(&c.Capacity).
				Validate(required("capacity")),
			huh.NewInput().
				Title("Duration (minutes)").
				Value(&c.Duration).
				Validate(required("duration")),
			huh.NewInput().
				Title("Price").
				Value(&c.Price).
				Validate(required("price")),
			huh.NewText().
				Title("Description").
				Value(&description),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	c.DayOfWeek = schema.Weekday(day)
	c.ClassType = classType
	if strings.TrimSpace(description) == "" {
		c.Description = nil
	} else {
		c.Description = &description
	}
	if normalized, err := schema.NormalizeTime(c.Time); err == nil {
		c.Time = normalized
	}
	return c.Validate()
}

// ClassForm edits c in place for a session of course. The date input
// suggests the course's next few dates and accepts natural language such
// as "next monday".
func ClassForm(c *schema.ClassSession, course *schema.Course, now time.Time) error {
	suggestions, _ := schema.UpcomingDates(course.DayOfWeek, now, 8)
	comments := deref(c.Comments)
	date := c.Date
	if date == "" && len(suggestions) > 0 {
		date = suggestions[0]
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Course %d", course.ID)).
				Description(course.Label()),
			huh.NewInput().
				Title("Date").
				Description("MM/DD/YYYY or e.g. \"next "+strings.ToLower(string(course.DayOfWeek))+"\"").
				Suggestions(suggestions).
				Value(&date).
				Validate(func(s string) error {
					resolved, err := schema.ResolveDate(s, now)
					if err != nil {
						return err
					}
					if course.DayOfWeek.Valid() && !schema.MatchesWeekday(resolved, course.DayOfWeek) {
						return fmt.Errorf("%s is not a %s", resolved, course.DayOfWeek)
					}
					return nil
				}),
			huh.NewInput().
				Title("Teacher").
				Value(&c.Teacher).
				Validate(required("teacher")),
			huh.NewText().
				Title("Comments").
				Value(&comments),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	resolved, err := schema.ResolveDate(date, now)
	if err != nil {
		return err
	}
	c.Date = resolved
	c.CourseID = course.ID
	if strings.TrimSpace(comments) == "" {
		c.Comments = nil
	} else {
		c.Comments = &comments
	}
	return c.Validate()
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
