package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSchedule is a parsed 5-field cron expression (minute hour
// day-of-month month day-of-week), per spec.md §6's grammar: each field
// is "*", "*/n", "a-b", "a-b/n", or a comma-separated list of those.
// When both day-of-month and day-of-week are restricted (not "*"), a
// timestamp matches if it satisfies EITHER field (standard cron OR
// semantics), not both.
type CronSchedule struct {
	raw           string
	minute        fieldSet
	hour          fieldSet
	dom           fieldSet
	month         fieldSet
	dow           fieldSet
	domRestricted bool
	dowRestricted bool
}

type fieldSet map[int]bool

var fieldRanges = [5][2]int{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 6},  // day of week, 0 = Sunday
}

// ParseCron parses expr into a CronSchedule, or returns a
// model.KindValidation error describing the first malformed field.
func ParseCron(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, NewError(KindValidation, fmt.Sprintf("cron expression must have 5 fields, got %d", len(fields)))
	}

	sets := make([]fieldSet, 5)
	for i, f := range fields {
		set, err := parseField(f, fieldRanges[i][0], fieldRanges[i][1])
		if err != nil {
			return nil, Wrap(KindValidation, fmt.Sprintf("invalid cron field %q", f), err)
		}
		sets[i] = set
	}

	return &CronSchedule{
		raw:           expr,
		minute:        sets[0],
		hour:          sets[1],
		dom:           sets[2],
		month:         sets[3],
		dow:           sets[4],
		domRestricted: fields[2] != "*",
		dowRestricted: fields[4] != "*",
	}, nil
}

func (c *CronSchedule) String() string { return c.raw }

// Matches reports whether t falls on a scheduled minute. Callers should
// call this once per distinct minute boundary; it does not itself
// dedupe repeated calls within the same minute.
func (c *CronSchedule) Matches(t time.Time) bool {
	if !c.minute[t.Minute()] || !c.hour[t.Hour()] || !c.month[int(t.Month())] {
		return false
	}
	domMatch := c.dom[t.Day()]
	dowMatch := c.dow[int(t.Weekday())]
	switch {
	case c.domRestricted && c.dowRestricted:
		return domMatch || dowMatch
	case c.domRestricted:
		return domMatch
	case c.dowRestricted:
		return dowMatch
	default:
		return true
	}
}

func parseField(field string, lo, hi int) (fieldSet, error) {
	set := fieldSet{}
	for _, part := range strings.Split(field, ",") {
		if err := parsePart(part, lo, hi, set); err != nil {
			return nil, err
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("field %q matches nothing", field)
	}
	return set, nil
}

func parsePart(part string, lo, hi int, set fieldSet) error {
	step := 1
	rangePart := part
	if idx := strings.IndexByte(part, '/'); idx >= 0 {
		rangePart = part[:idx]
		n, err := strconv.Atoi(part[idx+1:])
		if err != nil || n <= 0 {
			return fmt.Errorf("bad step in %q", part)
		}
		step = n
	}

	var start, end int
	switch {
	case rangePart == "*":
		start, end = lo, hi
	case strings.Contains(rangePart, "-"):
		bounds := strings.SplitN(rangePart, "-", 2)
		a, err1 := strconv.Atoi(bounds[0])
		b, err2 := strconv.Atoi(bounds[1])
		if err1 != nil || err2 != nil || a > b {
			return fmt.Errorf("bad range %q", rangePart)
		}
		start, end = a, b
	default:
		n, err := strconv.Atoi(rangePart)
		if err != nil {
			return fmt.Errorf("bad value %q", rangePart)
		}
		start, end = n, n
	}

	if start < lo || end > hi {
		return fmt.Errorf("value out of range [%d-%d] in %q", lo, hi, part)
	}

	for v := start; v <= end; v += step {
		set[v] = true
	}
	return nil
}
