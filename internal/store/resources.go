package store

import (
	"peertutor/internal/models"
)

// GetTutorResources returns the resources uploaded by tutorID.
func (s *Store) GetTutorResources(tutorID string) []models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Resource{}
	for _, r := range s.resources {
		if r.UploadedBy == tutorID {
			out = append(out, r)
		}
	}
	return out
}

// GetResources returns every resource.
func (s *Store) GetResources() []models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrEmpty(s.resources)
}

// AddResource stores a resource.
func (s *Store) AddResource(r models.Resource) models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id(r.ID)
	r.CreatedAt = s.stamp(r.CreatedAt)
	s.resources = append(s.resources, r)
	return r
}

// GetSessionFeedback returns the feedback left on a session.
func (s *Store) GetSessionFeedback(sessionID string) []models.Feedback {
	return s.feedbackWhere(func(f models.Feedback) bool { return f.SessionID == sessionID })
}

// GetUserFeedback returns the feedback left about userID.
func (s *Store) GetUserFeedback(userID string) []models.Feedback {
	return s.feedbackWhere(func(f models.Feedback) bool { return f.ToID == userID })
}

func (s *Store) feedbackWhere(keep func(models.Feedback) bool) []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Feedback{}
	for _, f := range s.feedback {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// AddFeedback stores a feedback entry.
func (s *Store) AddFeedback(f models.Feedback) models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id(f.ID)
	f.CreatedAt = s.stamp(f.CreatedAt)
	s.feedback = append(s.feedback, f)
	return f
}

// AddSessionFeedback stores f unless its author already left feedback on
// the same session, and folds the rating into the recipient's average when
// the recipient is a tutor. Both happen under one lock.
func (s *Store) AddSessionFeedback(f models.Feedback) (models.Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.feedback {
		if existing.SessionID == f.SessionID && existing.FromID == f.FromID {
			return models.Feedback{}, false
		}
	}
	f.ID = s.id(f.ID)
	f.CreatedAt = s.stamp(f.CreatedAt)
	s.feedback = append(s.feedback, f)
	s.recordReview(f.ToID, f.Rating)
	return f, true
}
