// Package search turns free-text tutor queries into structured filters and
// applies them to tutor profiles.
package search

import "peertutor/internal/models"

// Each table is scanned in order and the first matching key wins, so the
// order of entries is part of the behaviour.

type dayEntry struct {
	key      string
	variants []string
}

var dayTable = []dayEntry{
	{"monday", []string{"monday", "mon", "mondays"}},
	{"tuesday", []string{"tuesday", "tue", "tues", "tuesdays"}},
	{"wednesday", []string{"wednesday", "wed", "wednesdays"}},
	{"thursday", []string{"thursday", "thu", "thur", "thurs", "thursdays"}},
	{"friday", []string{"friday", "fri", "fridays"}},
	{"saturday", []string{"saturday", "sat", "saturdays"}},
	{"sunday", []string{"sunday", "sun", "sundays"}},
	{"weekend", []string{"weekend", "weekends", "saturday", "sunday", "sat", "sun"}},
	{"weekday", []string{"weekday", "weekdays", "monday", "tuesday", "wednesday", "thursday", "friday"}},
}

// TimeRange is an inclusive clock range in HH:MM form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimePeriod is a named part of the day.
type TimePeriod struct {
	Key string `json:"key"`
	TimeRange
}

var timeTable = []TimePeriod{
	{"morning", TimeRange{"06:00", "12:00"}},
	{"afternoon", TimeRange{"12:00", "17:00"}},
	{"evening", TimeRange{"17:00", "21:00"}},
	{"night", TimeRange{"21:00", "23:59"}},
}

type synonym struct {
	term  string
	value string
}

var levelTable = []synonym{
	{"beginner", models.LevelBeginner},
	{"basic", models.LevelBeginner},
	{"introductory", models.LevelBeginner},
	{"intermediate", models.LevelIntermediate},
	{"medium", models.LevelIntermediate},
	{"advanced", models.LevelAdvanced},
	{"expert", models.LevelAdvanced},
	{"first-year", models.LevelBeginner},
	{"second-year", models.LevelIntermediate},
	{"third-year", models.LevelAdvanced},
	{"fourth-year", models.LevelAdvanced},
}

var modeTable = []synonym{
	{"online", string(models.ModeOnline)},
	{"virtual", string(models.ModeOnline)},
	{"zoom", string(models.ModeOnline)},
	{"remote", string(models.ModeOnline)},
	{"in-person", string(models.ModeInPerson)},
	{"face-to-face", string(models.ModeInPerson)},
	{"campus", string(models.ModeInPerson)},
	{"physical", string(models.ModeInPerson)},
}

// DayVariants returns the lowercase weekday names a day key stands for.
// "weekend" expands to its variants, which include saturday and sunday.
// Unknown keys expand to themselves.
func DayVariants(day string) []string {
	for _, e := range dayTable {
		if e.key == day {
			out := make([]string, len(e.variants))
			copy(out, e.variants)
			return out
		}
	}
	return []string{day}
}

// TimePeriodRange returns the clock range for a time period key.
func TimePeriodRange(key string) (TimeRange, bool) {
	for _, p := range timeTable {
		if p.Key == key {
			return p.TimeRange, true
		}
	}
	return TimeRange{}, false
}

// TimePeriods lists the known time periods in table order.
func TimePeriods() []TimePeriod {
	out := make([]TimePeriod, len(timeTable))
	copy(out, timeTable)
	return out
}
