package store

import (
	"peertutor/internal/models"
)

// GetTutorSessions returns the sessions taught by tutorID.
func (s *Store) GetTutorSessions(tutorID string) []models.TutorSession {
	return s.sessionsWhere(func(ts *models.TutorSession) bool { return ts.TutorID == tutorID })
}

// GetTuteeSessions returns the sessions booked by tuteeID.
func (s *Store) GetTuteeSessions(tuteeID string) []models.TutorSession {
	return s.sessionsWhere(func(ts *models.TutorSession) bool { return ts.TuteeID == tuteeID })
}

// ListSessions returns every session.
func (s *Store) ListSessions() []models.TutorSession {
	return s.sessionsWhere(func(*models.TutorSession) bool { return true })
}

func (s *Store) sessionsWhere(keep func(*models.TutorSession) bool) []models.TutorSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.TutorSession{}
	for _, ts := range s.sessions {
		if keep(ts) {
			out = append(out, *ts)
		}
	}
	return out
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(id string) (models.TutorSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ts := s.session(id); ts != nil {
		return *ts, true
	}
	return models.TutorSession{}, false
}

// AddSession stores a session. A missing status defaults to requested.
func (s *Store) AddSession(ts models.TutorSession) models.TutorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts.ID = s.id(ts.ID)
	if ts.Status == "" {
		ts.Status = models.SessionRequested
	}
	stored := ts
	s.sessions = append(s.sessions, &stored)
	return stored
}

// UpdateSession applies the non-nil patch fields. It reports false when the
// session does not exist.
func (s *Store) UpdateSession(id string, patch models.SessionPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.session(id)
	if ts == nil {
		return false
	}
	if patch.Status != nil {
		ts.Status = *patch.Status
	}
	if patch.DateTime != nil {
		ts.DateTime = *patch.DateTime
	}
	if patch.Duration != nil {
		ts.Duration = *patch.Duration
	}
	if patch.Mode != nil {
		ts.Mode = *patch.Mode
	}
	if patch.Notes != nil {
		ts.Notes = *patch.Notes
	}
	if patch.MeetingLink != nil {
		ts.MeetingLink = *patch.MeetingLink
	}
	return true
}

// TransitionSession moves a session from one status to another atomically.
// It reports false when the session is missing or not in the from state.
func (s *Store) TransitionSession(id string, from, to models.SessionStatus) (models.TutorSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.session(id)
	if ts == nil || ts.Status != from {
		return models.TutorSession{}, false
	}
	ts.Status = to
	return *ts, true
}

func (s *Store) session(id string) *models.TutorSession {
	for _, ts := range s.sessions {
		if ts.ID == id {
			return ts
		}
	}
	return nil
}
