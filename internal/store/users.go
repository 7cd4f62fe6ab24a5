package store

import (
	"fmt"
	"slices"

	"peertutor/internal/models"
)

// AllUsers returns the combined user view.
func (s *Store) AllUsers() *Directory {
	return s.users
}

// FindUserByID looks a user up across tutors and tutees.
func (s *Store) FindUserByID(id string) (models.User, bool) {
	return s.users.Get(id)
}

// FindUserByEmail matches the email exactly, case included.
func (s *Store) FindUserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users.entries {
		if u.Email == email {
			return *u, true
		}
	}
	return models.User{}, false
}

// GetTutor returns the full tutor profile.
func (s *Store) GetTutor(id string) (models.TutorProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.tutor(id); t != nil {
		return cloneTutor(t), true
	}
	return models.TutorProfile{}, false
}

// GetTutee returns the full tutee profile.
func (s *Store) GetTutee(id string) (models.TuteeProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.tutee(id); t != nil {
		return cloneTutee(t), true
	}
	return models.TuteeProfile{}, false
}

// ListTutors returns every tutor in insertion order.
func (s *Store) ListTutors() []models.TutorProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TutorProfile, 0, len(s.tutors))
	for _, t := range s.tutors {
		out = append(out, cloneTutor(t))
	}
	return out
}

// ListTutees returns every tutee in insertion order.
func (s *Store) ListTutees() []models.TuteeProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TuteeProfile, 0, len(s.tutees))
	for _, t := range s.tutees {
		out = append(out, cloneTutee(t))
	}
	return out
}

// AddUser stores a tutor or tutee profile and refreshes the combined view.
// The profile's role must match its type and its id must be unused. An
// empty id is replaced with a generated one.
func (s *Store) AddUser(account models.Account) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccount(account)
}

// RegisterAccount adds the account and its credential as one step. It
// returns a conflict error, storing nothing, when either the user email or
// the credential email is already taken.
func (s *Store) RegisterAccount(account models.Account, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credentialIndex(email) >= 0 || s.emailTaken(email) {
		return models.User{}, models.NewConflictError("An account with this email already exists")
	}
	user, err := s.addAccount(account)
	if err != nil {
		return models.User{}, err
	}
	s.credentials = append(s.credentials, models.UserCredential{
		Email:    email,
		Password: passwordHash,
		UserID:   user.ID,
	})
	return user, nil
}

func (s *Store) emailTaken(email string) bool {
	for _, u := range s.users.entries {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) addAccount(account models.Account) (models.User, error) {
	switch p := account.(type) {
	case models.TutorProfile:
		return s.addTutor(p)
	case *models.TutorProfile:
		if p == nil {
			return models.User{}, models.NewValidationError("profile is nil")
		}
		return s.addTutor(*p)
	case models.TuteeProfile:
		return s.addTutee(p)
	case *models.TuteeProfile:
		if p == nil {
			return models.User{}, models.NewValidationError("profile is nil")
		}
		return s.addTutee(*p)
	default:
		return models.User{}, models.NewValidationError(fmt.Sprintf("unsupported account type %T", account))
	}
}

func (s *Store) addTutor(p models.TutorProfile) (models.User, error) {
	if p.Role != models.RoleTutor {
		return models.User{}, models.NewValidationError(fmt.Sprintf("tutor profile has role %q", p.Role))
	}
	p.ID = s.id(p.ID)
	if s.users.lookup(p.ID) != nil {
		return models.User{}, models.NewConflictError(fmt.Sprintf("user %s already exists", p.ID))
	}
	p.CreatedAt = s.stamp(p.CreatedAt)
	stored := cloneTutor(&p)
	s.tutors = append(s.tutors, &stored)
	s.users.rebuild(s.tutors, s.tutees)
	return stored.User, nil
}

func (s *Store) addTutee(p models.TuteeProfile) (models.User, error) {
	if p.Role != models.RoleTutee {
		return models.User{}, models.NewValidationError(fmt.Sprintf("tutee profile has role %q", p.Role))
	}
	p.ID = s.id(p.ID)
	if s.users.lookup(p.ID) != nil {
		return models.User{}, models.NewConflictError(fmt.Sprintf("user %s already exists", p.ID))
	}
	p.CreatedAt = s.stamp(p.CreatedAt)
	stored := cloneTutee(&p)
	s.tutees = append(s.tutees, &stored)
	s.users.rebuild(s.tutors, s.tutees)
	return stored.User, nil
}

// UpdateUser merges the non-nil patch fields into the user's profile.
// Tutor-only and tutee-only fields are ignored for the other role. It
// reports false, changing nothing, when the id is unknown.
func (s *Store) UpdateUser(patch models.UserPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.tutor(patch.ID); t != nil {
		applyUserPatch(&t.User, patch)
		if patch.Qualifications != nil {
			t.Qualifications = slices.Clone(*patch.Qualifications)
		}
		if patch.HourlyRate != nil {
			t.HourlyRate = *patch.HourlyRate
		}
		if patch.Availability != nil {
			t.Availability = slices.Clone(*patch.Availability)
		}
		if patch.Modes != nil {
			t.Modes = slices.Clone(*patch.Modes)
		}
		return true
	}
	if t := s.tutee(patch.ID); t != nil {
		applyUserPatch(&t.User, patch)
		if patch.Interests != nil {
			t.Interests = slices.Clone(*patch.Interests)
		}
		if patch.LearningPreferences != nil {
			t.LearningPreferences = slices.Clone(*patch.LearningPreferences)
		}
		return true
	}
	return false
}

func applyUserPatch(u *models.User, patch models.UserPatch) {
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.ProfilePicture != nil {
		u.ProfilePicture = *patch.ProfilePicture
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
}

// recordReview folds a new rating into the tutor's average. Callers hold
// the write lock.
func (s *Store) recordReview(tutorID string, rating int) bool {
	t := s.tutor(tutorID)
	if t == nil {
		return false
	}
	total := t.Rating*float64(t.ReviewCount) + float64(rating)
	t.ReviewCount++
	t.Rating = total / float64(t.ReviewCount)
	return true
}

// FindUserCredentials returns the credential registered for email.
func (s *Store) FindUserCredentials(email string) (models.UserCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.credentialIndex(email); i >= 0 {
		return s.credentials[i], true
	}
	return models.UserCredential{}, false
}

// AddUserCredentials registers a credential. It reports false and leaves the
// existing entry untouched when the email is already registered.
func (s *Store) AddUserCredentials(email, password, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credentialIndex(email) >= 0 {
		return false
	}
	s.credentials = append(s.credentials, models.UserCredential{
		Email:    email,
		Password: password,
		UserID:   userID,
	})
	return true
}

// UpdateUserCredentials replaces the stored password for email.
func (s *Store) UpdateUserCredentials(email, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.credentialIndex(email)
	if i < 0 {
		return false
	}
	s.credentials[i].Password = password
	return true
}

func (s *Store) credentialIndex(email string) int {
	for i, c := range s.credentials {
		if c.Email == email {
			return i
		}
	}
	return -1
}

func (s *Store) tutor(id string) *models.TutorProfile {
	for _, t := range s.tutors {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Store) tutee(id string) *models.TuteeProfile {
	for _, t := range s.tutees {
		if t.ID == id {
			return t
		}
	}
	return nil
}
