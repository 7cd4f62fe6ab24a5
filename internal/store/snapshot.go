package store

import (
	"fmt"
	"slices"

	"peertutor/internal/models"
	"peertutor/internal/search"
)

// SearchTutors applies a parsed query to the current tutors.
func (s *Store) SearchTutors(q models.SearchQuery, opts search.Options) []models.TutorProfile {
	return search.Filter(s.ListTutors(), q, opts)
}

// Dataset is a point-in-time copy of every collection.
type Dataset struct {
	Tutors      []models.TutorProfile
	Tutees      []models.TuteeProfile
	Credentials []models.UserCredential
	Subjects    []models.Subject
	Sessions    []models.TutorSession
	Resources   []models.Resource
	Feedback    []models.Feedback
	Messages    []models.Message
}

// Empty reports whether the dataset holds no users and no subjects.
func (d Dataset) Empty() bool {
	return len(d.Tutors) == 0 && len(d.Tutees) == 0 && len(d.Subjects) == 0
}

// Snapshot copies the store's contents.
func (s *Store) Snapshot() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Dataset{
		Tutors:      make([]models.TutorProfile, 0, len(s.tutors)),
		Tutees:      make([]models.TuteeProfile, 0, len(s.tutees)),
		Credentials: cloneOrEmpty(s.credentials),
		Subjects:    cloneOrEmpty(s.subjects),
		Sessions:    make([]models.TutorSession, 0, len(s.sessions)),
		Resources:   cloneOrEmpty(s.resources),
		Feedback:    cloneOrEmpty(s.feedback),
		Messages:    make([]models.Message, 0, len(s.messages)),
	}
	for _, t := range s.tutors {
		d.Tutors = append(d.Tutors, cloneTutor(t))
	}
	for _, t := range s.tutees {
		d.Tutees = append(d.Tutees, cloneTutee(t))
	}
	for _, ts := range s.sessions {
		d.Sessions = append(d.Sessions, *ts)
	}
	for _, m := range s.messages {
		d.Messages = append(d.Messages, *m)
	}
	return d
}

// Restore replaces the store's contents with d. The dataset is validated
// first; on error the store is left unchanged. The combined user view is
// rebuilt in place.
func (s *Store) Restore(d Dataset) error {
	seen := make(map[string]struct{}, len(d.Tutors)+len(d.Tutees))
	for _, t := range d.Tutors {
		if t.Role != models.RoleTutor {
			return models.NewValidationError(fmt.Sprintf("tutor %s has role %q", t.ID, t.Role))
		}
		if _, dup := seen[t.ID]; dup || t.ID == "" {
			return models.NewConflictError(fmt.Sprintf("duplicate or empty user id %q", t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	for _, t := range d.Tutees {
		if t.Role != models.RoleTutee {
			return models.NewValidationError(fmt.Sprintf("tutee %s has role %q", t.ID, t.Role))
		}
		if _, dup := seen[t.ID]; dup || t.ID == "" {
			return models.NewConflictError(fmt.Sprintf("duplicate or empty user id %q", t.ID))
		}
		seen[t.ID] = struct{}{}
	}

	tutors := make([]*models.TutorProfile, 0, len(d.Tutors))
	for i := range d.Tutors {
		t := cloneTutor(&d.Tutors[i])
		tutors = append(tutors, &t)
	}
	tutees := make([]*models.TuteeProfile, 0, len(d.Tutees))
	for i := range d.Tutees {
		t := cloneTutee(&d.Tutees[i])
		tutees = append(tutees, &t)
	}
	sessions := make([]*models.TutorSession, 0, len(d.Sessions))
	for _, ts := range d.Sessions {
		sessions = append(sessions, &ts)
	}
	messages := make([]*models.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		messages = append(messages, &m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tutors = tutors
	s.tutees = tutees
	s.credentials = slices.Clone(d.Credentials)
	s.subjects = slices.Clone(d.Subjects)
	s.sessions = sessions
	s.resources = slices.Clone(d.Resources)
	s.feedback = slices.Clone(d.Feedback)
	s.messages = messages
	s.users.rebuild(s.tutors, s.tutees)
	return nil
}
