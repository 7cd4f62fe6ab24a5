package store

import (
	"slices"

	"peertutor/internal/models"
)

// GetAllSubjects returns the subject catalog in insertion order.
func (s *Store) GetAllSubjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrEmpty(s.subjects)
}

// GetSubjectsByTutor returns the catalog entries owned by tutorID. Copies
// embedded in the tutor profile are not consulted.
func (s *Store) GetSubjectsByTutor(tutorID string) []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Subject{}
	for _, sub := range s.subjects {
		if sub.TutorID == tutorID {
			out = append(out, sub)
		}
	}
	return out
}

// GetSubject returns the catalog entry with the given id.
func (s *Store) GetSubject(id string) (models.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return models.Subject{}, false
}

// AddSubject appends to the catalog. When the subject names an existing
// tutor, a copy is also appended to that tutor's subject list.
func (s *Store) AddSubject(sub models.Subject) models.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id(sub.ID)
	s.subjects = append(s.subjects, sub)
	if sub.TutorID != "" {
		if t := s.tutor(sub.TutorID); t != nil {
			t.Subjects = append(t.Subjects, sub)
		}
	}
	return sub
}

func cloneOrEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return []T{}
	}
	return slices.Clone(in)
}
