package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/mschirtzinger/yoga/internal/schema"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Print writes v as JSON or YAML, or calls table for the table format.
func Print(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		table(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Table renders rows under header without borders.
func Table(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

// CourseTable lists courses one per row.
func CourseTable(w io.Writer, courses []*schema.Course) {
	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			string(c.DayOfWeek),
			c.Time,
			c.ClassType,
			c.Capacity,
			c.Duration + " min",
			c.Price,
			deref(c.Description),
		})
	}
	Table(w, []string{"ID", "Day", "Time", "Type", "Capacity", "Duration", "Price", "Description"}, rows)
}

// ClassTable lists class sessions one per row.
func ClassTable(w io.Writer, classes []*schema.ClassSession) {
	rows := make([][]string, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			strconv.FormatInt(c.CourseID, 10),
			c.Date,
			c.Teacher,
			deref(c.Comments),
		})
	}
	Table(w, []string{"ID", "Course", "Date", "Teacher", "Comments"}, rows)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
