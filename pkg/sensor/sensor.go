package sensor

import (
	"strings"
	"time"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/fetcher"
	"github.com/kotrzina/skolmaten/pkg/menu"
	"github.com/kotrzina/skolmaten/pkg/utils"
	"github.com/kozaktomas/diacritics"
)

const (
	StateError  = "Error fetching menu"
	StateNoData = "No menu data available"

	iconMenu   = "mdi:food"
	iconNoData = "mdi:food-off"
	iconError  = "mdi:alert-circle"

	entityPrefix = "sensor.skolmaten_"
)

// Payload is one state update of a source's sensor
type Payload struct {
	EntityID   string
	State      string
	Attributes map[string]interface{}
	Degraded   bool // error or no data instead of a menu
}

// EntityID derives the sensor entity id from a source slug,
// "hövägens-förskola" becomes "sensor.skolmaten_hovagens_forskola"
func EntityID(slug string) string {
	ascii, err := diacritics.Remove(slug)
	if err != nil {
		ascii = slug
	}
	ascii = strings.ToLower(ascii)

	var b strings.Builder
	for _, r := range ascii {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	return entityPrefix + b.String()
}

// Menu builds the payload of a successfully fetched menu
func Menu(source config.Source, assembly menu.Assembly, nextWeek fetcher.NextWeekStatus, now time.Time) Payload {
	attributes := map[string]interface{}{
		"icon":                iconMenu,
		"friendly_name":       source.Name,
		"unit_of_measurement": nil,
		"device_class":        nil,
		"calendar":            assembly.Calendar,
		"next_week":           string(nextWeek),
		"last_updated":        utils.FormatTimestamp(now),
	}

	if today := assembly.Today; today != nil {
		attributes["today_date"] = today.Date
		attributes["today_weekday"] = today.Weekday
		attributes["today_week"] = today.Week
		attributes["today_courses"] = today.Courses
		attributes["courses_count"] = len(today.Courses)
	} else {
		attributes["today_date"] = nil
		attributes["today_weekday"] = nil
		attributes["today_week"] = nil
		attributes["today_courses"] = []string{}
		attributes["courses_count"] = 0
	}

	return Payload{
		EntityID:   EntityID(source.Slug),
		State:      assembly.State,
		Attributes: attributes,
	}
}

// NoData is published when the page was read but no day had any course
func NoData(source config.Source, nextWeek fetcher.NextWeekStatus, now time.Time) Payload {
	return Payload{
		EntityID: EntityID(source.Slug),
		State:    StateNoData,
		Attributes: map[string]interface{}{
			"icon":          iconNoData,
			"friendly_name": "Menu - " + source.Name,
			"calendar":      menu.CalendarView{},
			"next_week":     string(nextWeek),
			"last_updated":  utils.FormatTimestamp(now),
		},
		Degraded: true,
	}
}

// Failure is published when the menu could not be fetched or published
func Failure(source config.Source, err error, now time.Time) Payload {
	return Payload{
		EntityID: EntityID(source.Slug),
		State:    StateError,
		Attributes: map[string]interface{}{
			"icon":          iconError,
			"friendly_name": "Menu - " + source.Name,
			"error":         err.Error(),
			"calendar":      menu.CalendarView{},
			"last_updated":  utils.FormatTimestamp(now),
		},
		Degraded: true,
	}
}
