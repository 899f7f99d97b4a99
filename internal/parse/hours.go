package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockRe = regexp.MustCompile(`^\s*(\d{1,2})\s*[:hH.]\s*(\d{2})\s*$`)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseClock converts a wall-clock string such as "09:30" or "9h30" into
// minutes after midnight. "24:00" is accepted as the end of the day.
func ParseClock(raw string) (int, error) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("unable to parse time of day: %q", raw)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if min > 59 || h > 24 || (h == 24 && min != 0) {
		return 0, fmt.Errorf("time of day out of range: %q", raw)
	}
	return h*60 + min, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWeekdays parses a comma separated list of weekday names ("mon,tue")
// or ranges ("mon-fri"). An empty string means every day.
func ParseWeekdays(raw string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, 7)
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		for d := time.Sunday; d <= time.Saturday; d++ {
			days[d] = true
		}
		return days, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		start, ok := weekdayNames[strings.TrimSpace(from)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q in %q", from, raw)
		}
		if !isRange {
			days[start] = true
			continue
		}
		end, ok := weekdayNames[strings.TrimSpace(to)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q in %q", to, raw)
		}
		// ranges may wrap around the week, e.g. "sat-mon"
		for d := start; ; d = (d + 1) % 7 {
			days[d] = true
			if d == end {
				break
			}
		}
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("no weekdays in %q", raw)
	}
	return days, nil
}
