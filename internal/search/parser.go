package search

import (
	"strings"

	"peertutor/internal/models"
)

// Parse extracts a SearchQuery from free text. Matching is a
// case-insensitive substring test against each vocabulary table; every
// category is resolved independently and the first match in table order
// wins. Subjects are matched by name against the catalog in its stored order.
func Parse(text string, subjects []models.Subject) models.SearchQuery {
	q := models.SearchQuery{Text: text}
	lower := strings.ToLower(text)

	for _, s := range subjects {
		if s.Name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(s.Name)) {
			q.Subject = s.Name
			break
		}
	}

	q.Availability.Day = matchDay(lower)

	for _, p := range timeTable {
		if strings.Contains(lower, p.Key) {
			q.Availability.Time = p.Key
			break
		}
	}

	q.Level = matchSynonym(lower, levelTable)
	q.Mode = models.SessionMode(matchSynonym(lower, modeTable))

	return q
}

func matchDay(lower string) string {
	for _, e := range dayTable {
		for _, v := range e.variants {
			if strings.Contains(lower, v) {
				return e.key
			}
		}
	}
	return ""
}

func matchSynonym(lower string, table []synonym) string {
	for _, s := range table {
		if strings.Contains(lower, s.term) {
			return s.value
		}
	}
	return ""
}
