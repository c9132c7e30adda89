package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the stored form of a class session date.
const DateLayout = "01/02/2006"

// ClassSession is one dated occurrence of a course.
type ClassSession struct {
	ID       int64   `json:"id"`
	CourseID int64   `json:"courseId"`
	Date     string  `json:"date"`
	Teacher  string  `json:"teacher"`
	Comments *string `json:"comments,omitempty"`
}

// Validate checks the session the way the class form does before saving.
func (c *ClassSession) Validate() error {
	if c.CourseID <= 0 {
		return fmt.Errorf("course id is required")
	}
	if _, err := ParseDate(c.Date); err != nil {
		return err
	}
	if strings.TrimSpace(c.Teacher) == "" {
		return fmt.Errorf("teacher is required")
	}
	return nil
}

// FormatDate renders t as "MM/DD/YYYY".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a stored "MM/DD/YYYY" date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must look like MM/DD/YYYY (got %q)", s)
	}
	return t, nil
}

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ResolveDate turns user input into a stored "MM/DD/YYYY" date.
//
// Accepted forms, in order: MM/DD/YYYY, M/D/YYYY, YYYY-MM-DD, and natural
// language relative to now ("tomorrow", "next monday", "march 10 2025").
func ResolveDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("date is required")
	}
	for _, layout := range []string{DateLayout, "1/2/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, input); err == nil {
			return FormatDate(t), nil
		}
	}
	r, err := dateParser.Parse(input, now)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognised date %q", input)
	}
	return FormatDate(r.Time), nil
}

// UpcomingDates returns the next n dates on or after from that fall on day.
func UpcomingDates(day Weekday, from time.Time, n int) ([]string, error) {
	wd, ok := day.Time()
	if !ok {
		return nil, fmt.Errorf("unknown day of week %q", day)
	}
	if n < 0 {
		return nil, fmt.Errorf("count must not be negative (got %d)", n)
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	offset := (int(wd) - int(start.Weekday()) + 7) % 7
	start = start.AddDate(0, 0, offset)

	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, FormatDate(start.AddDate(0, 0, 7*i)))
	}
	return dates, nil
}

// MatchesWeekday reports whether date falls on day. Dates that do not parse
// never match.
func MatchesWeekday(date string, day Weekday) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	return WeekdayOf(t) == day
}
