package menu

// Vocabulary holds the recognized tokens for every locale dependent concept
// of the menu page. Adding a locale means adding tokens here.
type Vocabulary struct {
	Weekdays    []string // matched case-insensitively as a substring of a line
	NextWeek    []string // labels of the "next week" control, tried in order
	Disclaimers []string // lines containing any of these are never courses
}

var (
	swedishWeekdays = []string{"måndag", "tisdag", "onsdag", "torsdag", "fredag"}
	englishWeekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
)

// DefaultVocabulary covers skolmaten.se in Swedish with an English fallback.
func DefaultVocabulary() Vocabulary {
	weekdays := make([]string, 0, len(swedishWeekdays)+len(englishWeekdays))
	weekdays = append(weekdays, swedishWeekdays...)
	weekdays = append(weekdays, englishWeekdays...)

	return Vocabulary{
		Weekdays:    weekdays,
		NextWeek:    []string{"Nästa vecka", "Next week", "nästa vecka", "next week"},
		Disclaimers: []string{"Med reservation"},
	}
}

// WithWeekdays returns a copy of v with day tokens replaced when tokens is not empty.
func (v Vocabulary) WithWeekdays(tokens []string) Vocabulary {
	if len(tokens) > 0 {
		v.Weekdays = tokens
	}
	return v
}

// WithNextWeek returns a copy of v with next week labels replaced when labels is not empty.
func (v Vocabulary) WithNextWeek(labels []string) Vocabulary {
	if len(labels) > 0 {
		v.NextWeek = labels
	}
	return v
}
