package timedataset

import (
	"time"
)

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// NextMonths returns n month starts following the last time in the slice. An empty slice yields
// n zero times since there is nothing to anchor on.
func (t TimeSlice) NextMonths(n int) []time.Time {
	out := make([]time.Time, n)
	if len(t) < 1 {
		return out
	}
	last := MonthStart(t.EndTime())
	for i := 0; i < n; i++ {
		out[i] = last.AddDate(0, i+1, 0)
	}
	return out
}

// Gaps counts the missing months between the first and last time
func (t TimeSlice) Gaps() int {
	if len(t) < 2 {
		return 0
	}
	return MonthsBetween(t.StartTime(), t.EndTime()) + 1 - len(t)
}

// MonthStart truncates a time to the first day of its month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the number of whole months from start to end
func MonthsBetween(start, end time.Time) int {
	start = MonthStart(start)
	end = MonthStart(end)
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// ParseMonth parses the period formats used by statistical APIs: 2024-01, 2024M01 and
// 2024-01-15.
func ParseMonth(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006M01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "2006-01", Value: s, Message: ": unknown month format"}
}
