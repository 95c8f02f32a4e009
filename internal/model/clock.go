package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a lowercase English day name. It is computed from time.Weekday,
// never from a locale-formatted string.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// weekdays is indexed by time.Weekday (Sunday == 0).
var weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

// ParseWeekday accepts a day name in any case.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range weekdays {
		if w == d {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (a single-digit hour such as "9:00" is accepted).
// Comparison is numeric so "9:00" sorts before "10:00".
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || len(hh) == 0 || len(hh) > 2 {
		return Clock{}, fmt.Errorf("clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return Clock{}, fmt.Errorf("clock %q: bad minute", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("clock %q: out of range", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// AvailabilityWindow is a weekly recurring range during which a creator is bookable.
type AvailabilityWindow struct {
	Day       Weekday `json:"day"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// Bounds parses the window's start and end clocks.
func (w AvailabilityWindow) Bounds() (Clock, Clock, error) {
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	return start, end, nil
}

// Validate checks the day name and that start <= end.
func (w AvailabilityWindow) Validate() error {
	if _, err := ParseWeekday(string(w.Day)); err != nil {
		return err
	}
	start, end, err := w.Bounds()
	if err != nil {
		return err
	}
	if start.Minutes() > end.Minutes() {
		return fmt.Errorf("window %s %s-%s ends before it starts", w.Day, w.StartTime, w.EndTime)
	}
	return nil
}
