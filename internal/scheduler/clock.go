// Package scheduler runs the reminder sweep and the recurring broadcast jobs
// on a minute tick.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression (minute, hour, day-of-month,
// month, day-of-week) stored as bit sets.
type Schedule struct {
	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64
}

// ParseSchedule parses a standard 5-field cron expression.
// Supports: *, */N, N, N-M, N-M/S and comma-separated lists.
func ParseSchedule(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("schedule: expected 5 fields, got %d", len(fields))
	}

	var s Schedule
	var err error
	if s.minute, err = parseField(fields[0], 0, 59); err != nil {
		return nil, fmt.Errorf("schedule: minute: %w", err)
	}
	if s.hour, err = parseField(fields[1], 0, 23); err != nil {
		return nil, fmt.Errorf("schedule: hour: %w", err)
	}
	if s.dom, err = parseField(fields[2], 1, 31); err != nil {
		return nil, fmt.Errorf("schedule: day-of-month: %w", err)
	}
	if s.month, err = parseField(fields[3], 1, 12); err != nil {
		return nil, fmt.Errorf("schedule: month: %w", err)
	}
	if s.dow, err = parseField(fields[4], 0, 6); err != nil {
		return nil, fmt.Errorf("schedule: day-of-week: %w", err)
	}
	return &s, nil
}

// MustParse is ParseSchedule for compile-time-known expressions.
func MustParse(expr string) *Schedule {
	s, err := ParseSchedule(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Matches reports whether t falls on the schedule.
func (s *Schedule) Matches(t time.Time) bool {
	return bit(s.minute, t.Minute()) &&
		bit(s.hour, t.Hour()) &&
		bit(s.dom, t.Day()) &&
		bit(s.month, int(t.Month())) &&
		bit(s.dow, int(t.Weekday()))
}

func bit(set uint64, v int) bool {
	return set&(1<<uint(v)) != 0
}

// parseField builds the bit set for one cron field.
func parseField(field string, min, max int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		bits, err := parsePart(part, min, max)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	return set, nil
}

// parsePart handles a single element: *, */N, N, N-M, N-M/S.
func parsePart(part string, min, max int) (uint64, error) {
	lo, hi, step := min, max, 1

	body, stepStr, hasStep := strings.Cut(part, "/")
	if hasStep {
		v, err := strconv.Atoi(stepStr)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid step in %q", part)
		}
		step = v
	}

	switch {
	case body == "*":
		// full range
	case strings.Contains(body, "-"):
		loStr, hiStr, _ := strings.Cut(body, "-")
		var err error
		if lo, err = strconv.Atoi(loStr); err != nil {
			return 0, fmt.Errorf("invalid range start %q", loStr)
		}
		if hi, err = strconv.Atoi(hiStr); err != nil {
			return 0, fmt.Errorf("invalid range end %q", hiStr)
		}
	default:
		v, err := strconv.Atoi(body)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q", body)
		}
		if hasStep {
			return 0, fmt.Errorf("step requires a range in %q", part)
		}
		lo, hi = v, v
	}

	if lo < min || hi > max || lo > hi {
		return 0, fmt.Errorf("range %d-%d out of bounds [%d,%d]", lo, hi, min, max)
	}
	var set uint64
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}
