package search

import (
	"strings"

	"peertutor/internal/models"
)

// Options tunes Filter.
type Options struct {
	// FilterMode drops tutors whose declared modes exclude the query mode.
	// Tutors that declare no modes are always kept.
	FilterMode bool
}

// Filter returns the tutors matching every structured field of q. When the
// query carries no subject, level or day, the raw text is split into words
// and a tutor matches if any word occurs in its name, bio or subject names.
// The input slice is not modified.
func Filter(tutors []models.TutorProfile, q models.SearchQuery, opts Options) []models.TutorProfile {
	out := make([]models.TutorProfile, 0, len(tutors))

	subject := strings.ToLower(q.Subject)
	var days []string
	if q.Availability.Day != "" {
		days = DayVariants(strings.ToLower(q.Availability.Day))
	}

	var terms []string
	if q.Subject == "" && q.Level == "" && q.Availability.Day == "" {
		terms = strings.Fields(strings.ToLower(q.Text))
	}

	for _, t := range tutors {
		if subject != "" && !hasSubjectLike(t, subject) {
			continue
		}
		if q.Level != "" && !hasLevel(t, q.Level) {
			continue
		}
		if len(days) > 0 && !availableOn(t, days) {
			continue
		}
		if opts.FilterMode && q.Mode != "" && !offersMode(t, q.Mode) {
			continue
		}
		if len(terms) > 0 && !matchesAnyTerm(t, terms) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasSubjectLike(t models.TutorProfile, lowerName string) bool {
	for _, s := range t.Subjects {
		if strings.Contains(strings.ToLower(s.Name), lowerName) {
			return true
		}
	}
	return false
}

func hasLevel(t models.TutorProfile, level string) bool {
	for _, s := range t.Subjects {
		if s.Level == level {
			return true
		}
	}
	return false
}

func availableOn(t models.TutorProfile, days []string) bool {
	for _, a := range t.Availability {
		day := strings.ToLower(a.Day)
		for _, d := range days {
			if day == d {
				return true
			}
		}
	}
	return false
}

func offersMode(t models.TutorProfile, mode models.SessionMode) bool {
	if len(t.Modes) == 0 {
		return true
	}
	for _, m := range t.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func matchesAnyTerm(t models.TutorProfile, terms []string) bool {
	parts := make([]string, 0, len(t.Subjects)+2)
	parts = append(parts, t.Name, t.Bio)
	for _, s := range t.Subjects {
		parts = append(parts, s.Name)
	}
	haystack := strings.ToLower(strings.Join(parts, " "))
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
