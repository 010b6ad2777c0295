package sensor

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/fetcher"
	"github.com/kotrzina/skolmaten/pkg/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	source = config.Source{Name: "Svenstorps förskola", Slug: "svenstorps-forskola"}
	now    = time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC)
)

func TestEntityID(t *testing.T) {
	tests := []struct {
		slug     string
		expected string
	}{
		{"svenstorps-forskola", "sensor.skolmaten_svenstorps_forskola"},
		{"hövägens-förskola", "sensor.skolmaten_hovagens_forskola"},
		{"Ängby skola", "sensor.skolmaten_angby_skola"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.expected, EntityID(tt.slug))
		})
	}
}

func TestMenu(t *testing.T) {
	date := "2024-03-04"
	week := 10
	entries := []menu.DayEntry{
		{Weekday: "Måndag", Date: &date, Week: &week, Courses: []string{"Köttbullar", "Potatismos"}},
	}

	p := Menu(source, menu.Assemble(entries, now), fetcher.NextWeekUnavailable, now)

	assert.False(t, p.Degraded)
	assert.Equal(t, "sensor.skolmaten_svenstorps_forskola", p.EntityID)
	assert.Equal(t, "Köttbullar, Potatismos", p.State)
	assert.Equal(t, "mdi:food", p.Attributes["icon"])
	assert.Equal(t, "Svenstorps förskola", p.Attributes["friendly_name"])
	assert.Equal(t, 2, p.Attributes["courses_count"])
	assert.Equal(t, "unavailable", p.Attributes["next_week"])
	assert.Equal(t, "2024-03-04T11:30:00Z", p.Attributes["last_updated"])

	data, err := json.Marshal(p.Attributes)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"icon": "mdi:food",
		"friendly_name": "Svenstorps förskola",
		"unit_of_measurement": null,
		"device_class": null,
		"calendar": {"10": [{"weekday": "Måndag", "date": "2024-03-04", "week": 10, "courses": ["Köttbullar", "Potatismos"]}]},
		"next_week": "unavailable",
		"last_updated": "2024-03-04T11:30:00Z",
		"today_date": "2024-03-04",
		"today_weekday": "Måndag",
		"today_week": 10,
		"today_courses": ["Köttbullar", "Potatismos"],
		"courses_count": 2
	}`, string(data))
}

func TestMenuNoMenuToday(t *testing.T) {
	date := "2024-03-05"
	entries := []menu.DayEntry{{Weekday: "Tisdag", Date: &date, Courses: []string{"Fisk"}}}

	p := Menu(source, menu.Assemble(entries, now), fetcher.NextWeekNotRequested, now)

	assert.Equal(t, menu.NoMenuToday, p.State)
	assert.Equal(t, 0, p.Attributes["courses_count"])
	assert.Equal(t, []string{}, p.Attributes["today_courses"])
	assert.Nil(t, p.Attributes["today_date"])

	data, err := json.Marshal(p.Attributes["calendar"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"Unknown": [{"weekday": "Tisdag", "date": "2024-03-05", "week": null, "courses": ["Fisk"]}]}`, string(data))
}

func TestDegraded(t *testing.T) {
	noData := NoData(source, fetcher.NextWeekFetched, now)
	assert.True(t, noData.Degraded)
	assert.Equal(t, StateNoData, noData.State)
	assert.Equal(t, "mdi:food-off", noData.Attributes["icon"])
	assert.Equal(t, "Menu - Svenstorps förskola", noData.Attributes["friendly_name"])
	assert.Empty(t, noData.Attributes["calendar"])

	failure := Failure(source, errors.New("menu container did not appear"), now)
	assert.True(t, failure.Degraded)
	assert.Equal(t, StateError, failure.State)
	assert.Equal(t, "mdi:alert-circle", failure.Attributes["icon"])
	assert.Equal(t, "menu container did not appear", failure.Attributes["error"])
	assert.Equal(t, "2024-03-04T11:30:00Z", failure.Attributes["last_updated"])
}
