// Package event annotates monthly series with notable dates and provides the US federal business
// calendar used to detect incomplete months in daily source data.
package event

import (
	"errors"
	"time"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// Event is a named time span marked on charts
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

// OnDay is an event covering a single calendar day
func OnDay(name string, day time.Time) Event {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return NewEvent(name, start, start.AddDate(0, 0, 1))
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Month is the month the event starts in
func (e Event) Month() time.Time {
	return time.Date(e.Start.Year(), e.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DefaultEvents are the economic shocks annotated on inflation charts
func DefaultEvents() []Event {
	return []Event{
		OnDay("Financial crisis", time.Date(2008, 9, 15, 0, 0, 0, 0, time.UTC)),
		OnDay("COVID-19", time.Date(2020, 3, 11, 0, 0, 0, 0, time.UTC)),
		OnDay("Ukraine war", time.Date(2022, 2, 24, 0, 0, 0, 0, time.UTC)),
		OnDay("US tariffs", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
	}
}

// Within returns the valid events overlapping [start, end]
func Within(events []Event, start, end time.Time) []Event {
	var res []Event
	for _, e := range events {
		if err := e.Valid(); err != nil {
			continue
		}
		if e.End.Before(start) || e.Start.After(end) {
			continue
		}
		res = append(res, e)
	}
	return res
}
