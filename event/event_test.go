package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, m time.Month, d int) time.Time {
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEventValid(t *testing.T) {
	testData := map[string]struct {
		e   Event
		err error
	}{
		"valid":           {e: OnDay("COVID-19", day(2020, 3, 11))},
		"unset":           {e: Event{Name: "x"}, err: ErrUnsetTime},
		"start after end": {e: NewEvent("x", day(2020, 2, 1), day(2020, 1, 1)), err: ErrStartAfterEnd},
		"no name":         {e: NewEvent("", day(2020, 1, 1), day(2020, 2, 1)), err: ErrNoEventName},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, td.e.Valid(), td.err)
		})
	}
}

func TestDefaultEvents(t *testing.T) {
	events := DefaultEvents()
	for _, e := range events {
		assert.NoError(t, e.Valid())
	}
	assert.Equal(t, day(2020, 3, 1), events[1].Month())

	within := Within(events, day(2020, 1, 1), day(2024, 12, 31))
	assert.Equal(t, []string{"COVID-19", "Ukraine war"}, []string{within[0].Name, within[1].Name})
	assert.Len(t, within, 2)

	assert.Empty(t, Within(events, day(1999, 1, 1), day(2000, 1, 1)))
	assert.Empty(t, Within([]Event{{Name: "bad"}}, day(1999, 1, 1), day(2030, 1, 1)))
}
