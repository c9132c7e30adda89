package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the day a course runs on, stored as its English name.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists every valid Weekday, Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ClassTypes is the set of class types offered by the course form.
// The store accepts any label.
var ClassTypes = []string{"Flow Yoga", "Aerial Yoga", "Family Yoga"}

// ParseWeekday matches s against the weekday names, ignoring case and
// surrounding whitespace. Three-letter abbreviations are accepted.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("day of week is required")
	}
	for _, d := range Weekdays {
		name := strings.ToLower(string(d))
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day of week %q", s)
}

// Valid reports whether d is one of the seven weekday names.
func (d Weekday) Valid() bool {
	_, ok := d.Time()
	return ok
}

// Time converts d to the standard library weekday.
func (d Weekday) Time() (time.Weekday, bool) {
	for i, w := range Weekdays {
		if w == d {
			// Weekdays starts on Monday, time.Weekday on Sunday.
			return time.Weekday((i + 1) % 7), true
		}
	}
	return 0, false
}

// WeekdayOf returns the Weekday a calendar date falls on.
func WeekdayOf(t time.Time) Weekday {
	return Weekdays[(int(t.Weekday())+6)%7]
}

// Course is a recurring weekly yoga course.
type Course struct {
	ID          int64   `json:"id"`
	DayOfWeek   Weekday `json:"dayOfTheWeek"`
	Time        string  `json:"time"`
	Capacity    string  `json:"capacity"`
	Duration    string  `json:"duration"`
	Price       string  `json:"price"`
	ClassType   string  `json:"typeOfClass"`
	Description *string `json:"description,omitempty"`
}

// Validate checks the course the way the course form does before saving.
func (c *Course) Validate() error {
	if !c.DayOfWeek.Valid() {
		return fmt.Errorf("day of week must be one of Monday..Sunday (got %q)", c.DayOfWeek)
	}
	if _, _, err := ParseTime(c.Time); err != nil {
		return err
	}
	if err := nonNegativeInt("capacity", c.Capacity); err != nil {
		return err
	}
	if err := nonNegativeInt("duration", c.Duration); err != nil {
		return err
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(c.Price), 64)
	if err != nil {
		return fmt.Errorf("price must be a number (got %q)", c.Price)
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative (got %q)", c.Price)
	}
	if strings.TrimSpace(c.ClassType) == "" {
		return fmt.Errorf("class type is required")
	}
	return nil
}

// Label is a short human description, e.g. "Monday 9:00 Flow Yoga".
func (c *Course) Label() string {
	return fmt.Sprintf("%s %s %s", c.DayOfWeek, c.Time, c.ClassType)
}

func nonNegativeInt(field, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be a whole number (got %q)", field, value)
	}
	if n < 0 {
		return fmt.Errorf("%s must not be negative (got %d)", field, n)
	}
	return nil
}

// FormatTime renders a wall-clock time as "H:MM".
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%d:%02d", hour, minute)
}

// ParseTime parses "H:MM" (a leading zero on the hour is tolerated).
func ParseTime(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || h == "" || len(h) > 2 {
		return 0, 0, fmt.Errorf("time must look like H:MM (got %q)", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour must be between 0 and 23 (got %q)", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute must be between 00 and 59 (got %q)", s)
	}
	return hour, minute, nil
}

// NormalizeTime re-renders s in canonical "H:MM" form.
func NormalizeTime(s string) (string, error) {
	h, m, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return FormatTime(h, m), nil
}
