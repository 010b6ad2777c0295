package menu

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minCourseLength is the shortest line (in runes) accepted as a course
// anything shorter is a stray marker or leftover from the layout
const minCourseLength = 6

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DayEntry is one day of a weekly menu
type DayEntry struct {
	Weekday string   `json:"weekday"`
	Date    *string  `json:"date"`
	Week    *int     `json:"week"`
	Courses []string `json:"courses"`
}

// Parser converts the rendered text of a menu container into day entries.
// Parser has no mutable state and can be shared.
type Parser struct {
	weekdays    []string
	disclaimers []string
}

func NewParser(vocabulary Vocabulary) *Parser {
	lower := cases.Lower(language.Und)
	weekdays := make([]string, 0, len(vocabulary.Weekdays))
	for _, day := range vocabulary.Weekdays {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}
		weekdays = append(weekdays, lower.String(day))
	}

	return &Parser{
		weekdays:    weekdays,
		disclaimers: vocabulary.Disclaimers,
	}
}

// Parse scans rawText line by line. A line containing a weekday name opens
// a new day section, following lines are dates or courses of that day until
// the next weekday line. Days without courses are dropped.
//
// The date is not reset between sections: a day without its own date line
// inherits the last date seen earlier in the scan.
func (p *Parser) Parse(rawText, weekTitle string) []DayEntry {
	acc := scan{
		lower: cases.Lower(language.Und),
		week:  ParseWeekNumber(weekTitle),
	}

	for _, line := range splitLines(rawText) {
		acc.step(p, line)
	}
	acc.flush()

	return acc.entries
}

// scan is the accumulator of a single Parse call
type scan struct {
	lower cases.Caser
	week  *int

	inDay   bool
	day     string
	date    *string // survives section boundaries
	courses []string

	entries []DayEntry
}

func (s *scan) step(p *Parser, line string) {
	if p.isWeekday(s.lower.String(line)) {
		s.flush()
		s.inDay = true
		s.day = line
		s.courses = nil
		return
	}

	// lines before the first weekday are page chrome
	if !s.inDay {
		return
	}

	switch {
	case reISODate.MatchString(line):
		date := line
		s.date = &date
	case utf8.RuneCountInString(line) < minCourseLength:
		// too short
	case p.isDisclaimer(line):
		// allergy/reservation notice
	default:
		s.courses = append(s.courses, line)
	}
}

func (s *scan) flush() {
	if !s.inDay || len(s.courses) == 0 {
		return
	}

	entry := DayEntry{
		Weekday: s.day,
		Courses: s.courses,
	}
	if s.date != nil {
		date := *s.date
		entry.Date = &date
	}
	if s.week != nil {
		week := *s.week
		entry.Week = &week
	}

	s.entries = append(s.entries, entry)
	s.courses = nil
}

func (p *Parser) isWeekday(lowerLine string) bool {
	for _, day := range p.weekdays {
		if strings.Contains(lowerLine, day) {
			return true
		}
	}
	return false
}

func (p *Parser) isDisclaimer(line string) bool {
	for _, d := range p.disclaimers {
		if d != "" && strings.Contains(line, d) {
			return true
		}
	}
	return false
}

// ParseWeekNumber returns the trailing integer token of a week title
// ("Vecka 10" => 10) or nil when the last token is not a number.
func ParseWeekNumber(weekTitle string) *int {
	fields := strings.Fields(weekTitle)
	if len(fields) == 0 {
		return nil
	}

	last := fields[len(fields)-1]
	for i := 0; i < len(last); i++ {
		if last[i] < '0' || last[i] > '9' {
			return nil
		}
	}

	week, err := strconv.Atoi(last)
	if err != nil {
		return nil
	}

	return &week
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
