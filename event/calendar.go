package event

import (
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// USFederalHolidays are the holidays on which the Federal Reserve does not publish daily rates
var USFederalHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	return dayKey{t.Year(), t.Month(), t.Day()}
}

// BusinessCalendar reports US business days, excluding weekends and observed federal holidays
type BusinessCalendar struct {
	holidays []*cal.Holiday

	mu       sync.Mutex
	observed map[int]map[dayKey]struct{}
}

// NewBusinessCalendar builds a calendar from the given holidays. No holidays uses USFederalHolidays.
func NewBusinessCalendar(holidays ...*cal.Holiday) *BusinessCalendar {
	if len(holidays) == 0 {
		holidays = USFederalHolidays
	}
	return &BusinessCalendar{
		holidays: holidays,
		observed: make(map[int]map[dayKey]struct{}),
	}
}

func (b *BusinessCalendar) year(y int) map[dayKey]struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if days, ok := b.observed[y]; ok {
		return days
	}
	days := make(map[dayKey]struct{}, len(b.holidays))
	// observed dates can spill into the neighbouring year, e.g. New Year on a Saturday
	for _, yr := range []int{y - 1, y, y + 1} {
		for _, hol := range b.holidays {
			_, observed := hol.Calc(yr)
			if observed.IsZero() || observed.Year() != y {
				continue
			}
			days[keyOf(observed)] = struct{}{}
		}
	}
	b.observed[y] = days
	return days
}

// IsHoliday reports whether t falls on an observed holiday
func (b *BusinessCalendar) IsHoliday(t time.Time) bool {
	_, ok := b.year(t.Year())[keyOf(t)]
	return ok
}

// IsBusinessDay reports whether t is a weekday that is not an observed holiday
func (b *BusinessCalendar) IsBusinessDay(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !b.IsHoliday(t)
}

// LastBusinessDay returns the last business day of the month containing t, at midnight UTC
func (b *BusinessCalendar) LastBusinessDay(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	for !b.IsBusinessDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
