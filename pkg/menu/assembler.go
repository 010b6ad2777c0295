package menu

import (
	"strconv"
	"strings"
	"time"

	"github.com/kotrzina/skolmaten/pkg/utils"
)

const (
	// NoMenuToday is the summary state when no entry matches today's date
	NoMenuToday = "No menu for today"

	// UnknownWeek is the calendar key for entries without a week number
	UnknownWeek = "Unknown"

	maxStateLength = 255
)

// CalendarView groups entries by week number, fetch order is kept within a week
type CalendarView map[string][]DayEntry

type Assembly struct {
	Calendar CalendarView
	Today    *DayEntry
	State    string
}

// Assemble builds the display structure for a fetched menu.
// today is compared as an ISO date in its own location.
func Assemble(entries []DayEntry, today time.Time) Assembly {
	calendar := CalendarView{}
	for _, entry := range entries {
		key := UnknownWeek
		if entry.Week != nil {
			key = strconv.Itoa(*entry.Week)
		}
		calendar[key] = append(calendar[key], entry)
	}

	isoToday := today.Format(time.DateOnly)
	var todayEntry *DayEntry
	for i := range entries {
		if entries[i].Date != nil && *entries[i].Date == isoToday {
			e := entries[i]
			todayEntry = &e
			break
		}
	}

	state := NoMenuToday
	if todayEntry != nil {
		state = utils.Truncate(strings.Join(todayEntry.Courses, ", "), maxStateLength)
	}

	return Assembly{
		Calendar: calendar,
		Today:    todayEntry,
		State:    state,
	}
}
