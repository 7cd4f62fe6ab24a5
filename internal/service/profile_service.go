package service

import (
	"context"
	"slices"
	"strings"

	"peertutor/internal/models"
	"peertutor/internal/store"
	"peertutor/internal/validation"
)

type ProfileService struct {
	store    *store.Store
	presence Presence
}

// Presence reports whether a user has a live realtime connection.
type Presence interface {
	IsOnline(userID string) bool
}

// UpdateProfileInput carries a shallow profile edit. Nil fields are left
// untouched; tutor-only and tutee-only fields are rejected for the other role.
type UpdateProfileInput struct {
	UserID         string
	Name           *string
	Bio            *string
	ProfilePicture *string

	Qualifications *[]string
	HourlyRate     *float64
	Modes          *[]models.SessionMode

	LearningPreferences *[]string
	InterestIDs         *[]string
}

type SubjectInput struct {
	Name        string
	Level       string
	HourlyRate  float64
	Description string
}

// Contact is a chat partner with the number of messages they sent that the
// caller has not read.
type Contact struct {
	models.User
	Unread int  `json:"unread"`
	Online bool `json:"online"`
}

func NewProfileService(s *store.Store) *ProfileService {
	return &ProfileService{store: s}
}

// WithPresence makes Contacts report who is online.
func (s *ProfileService) WithPresence(p Presence) *ProfileService {
	s.presence = p
	return s
}

func (s *ProfileService) GetUser(id string) (models.User, error) {
	return requireUser(s.store, id)
}

func (s *ProfileService) GetTutor(id string) (models.TutorProfile, error) {
	return requireTutor(s.store, id)
}

func (s *ProfileService) ListTutors() []models.TutorProfile {
	return s.store.ListTutors()
}

// GetProfile returns the caller's role-specific profile.
func (s *ProfileService) GetProfile(userID string) (any, error) {
	if t, ok := s.store.GetTutor(userID); ok {
		return t, nil
	}
	if t, ok := s.store.GetTutee(userID); ok {
		return t, nil
	}
	return nil, models.NewNotFoundError("User", userID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (any, error) {
	callLog.LogServiceCall(ctx, "profile", "update", nil)

	user, err := requireUser(s.store, in.UserID)
	if err != nil {
		return nil, err
	}

	patch := models.UserPatch{ID: in.UserID}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.Name = &name
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.Bio = in.Bio
	}
	if in.ProfilePicture != nil {
		if err := validation.ValidatePictureURL(*in.ProfilePicture); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.ProfilePicture = in.ProfilePicture
	}

	tutorFields := in.Qualifications != nil || in.HourlyRate != nil || in.Modes != nil
	tuteeFields := in.LearningPreferences != nil || in.InterestIDs != nil
	switch {
	case user.Role == models.RoleTutee && tutorFields:
		return nil, models.NewValidationError("qualifications, hourly rate and modes apply to tutors only")
	case user.Role == models.RoleTutor && tuteeFields:
		return nil, models.NewValidationError("learning preferences and interests apply to tutees only")
	}

	if in.HourlyRate != nil && *in.HourlyRate < 0 {
		return nil, models.NewValidationError("hourly rate must not be negative")
	}
	if in.Modes != nil {
		for _, m := range *in.Modes {
			if !m.Valid() {
				return nil, models.NewValidationError("mode must be online or in-person")
			}
		}
		modes := slices.Compact(slices.Sorted(slices.Values(*in.Modes)))
		patch.Modes = &modes
	}
	patch.Qualifications = in.Qualifications
	patch.HourlyRate = in.HourlyRate
	patch.LearningPreferences = in.LearningPreferences

	if in.InterestIDs != nil {
		interests := make([]models.Subject, 0, len(*in.InterestIDs))
		for _, id := range *in.InterestIDs {
			sub, ok := s.store.GetSubject(id)
			if !ok {
				return nil, models.NewValidationError("unknown subject " + id)
			}
			interests = append(interests, sub)
		}
		patch.Interests = &interests
	}

	if !s.store.UpdateUser(patch) {
		return nil, models.NewNotFoundError("User", in.UserID)
	}
	return s.GetProfile(in.UserID)
}

// SetAvailability replaces a tutor's weekly availability.
func (s *ProfileService) SetAvailability(ctx context.Context, tutorID string, slots []models.Availability) (models.TutorProfile, error) {
	callLog.LogServiceCall(ctx, "profile", "set_availability", map[string]any{"slots": len(slots)})

	if _, err := s.requireTutorRole(tutorID); err != nil {
		return models.TutorProfile{}, err
	}
	for _, a := range slots {
		if err := validation.ValidateAvailability(a); err != nil {
			return models.TutorProfile{}, models.NewValidationError(err.Error())
		}
	}
	avail := slices.Clone(slots)
	if avail == nil {
		avail = []models.Availability{}
	}
	s.store.UpdateUser(models.UserPatch{ID: tutorID, Availability: &avail})
	return requireTutor(s.store, tutorID)
}

// AddSubject lists a new subject for the tutor in the catalog and on the
// tutor's profile.
func (s *ProfileService) AddSubject(ctx context.Context, tutorID string, in SubjectInput) (models.Subject, error) {
	callLog.LogServiceCall(ctx, "profile", "add_subject", map[string]any{"level": in.Level})

	if _, err := s.requireTutorRole(tutorID); err != nil {
		return models.Subject{}, err
	}
	sub := models.Subject{
		Name:        strings.TrimSpace(in.Name),
		Level:       in.Level,
		TutorID:     tutorID,
		HourlyRate:  in.HourlyRate,
		Description: strings.TrimSpace(in.Description),
	}
	if err := validation.ValidateSubject(sub); err != nil {
		return models.Subject{}, models.NewValidationError(err.Error())
	}
	return s.store.AddSubject(sub), nil
}

func (s *ProfileService) requireTutorRole(userID string) (models.User, error) {
	user, err := requireUser(s.store, userID)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != models.RoleTutor {
		return models.User{}, models.NewForbiddenError("Only tutors can do this")
	}
	return user, nil
}

func (s *ProfileService) Subjects() []models.Subject {
	return s.store.GetAllSubjects()
}

func (s *ProfileService) TutorSubjects(tutorID string) ([]models.Subject, error) {
	if _, err := requireTutor(s.store, tutorID); err != nil {
		return nil, err
	}
	return s.store.GetSubjectsByTutor(tutorID), nil
}

func (s *ProfileService) TutorResources(tutorID string) ([]models.Resource, error) {
	if _, err := requireTutor(s.store, tutorID); err != nil {
		return nil, err
	}
	return s.store.GetTutorResources(tutorID), nil
}

func (s *ProfileService) TutorFeedback(tutorID string) ([]models.Feedback, error) {
	if _, err := requireTutor(s.store, tutorID); err != nil {
		return nil, err
	}
	return s.store.GetUserFeedback(tutorID), nil
}

// Contacts lists users of the opposite role, as the messaging page does.
func (s *ProfileService) Contacts(userID string) ([]Contact, error) {
	me, err := requireUser(s.store, userID)
	if err != nil {
		return nil, err
	}
	unread := s.store.UnreadCounts(userID)
	contacts := []Contact{}
	for _, u := range s.store.AllUsers().List() {
		if u.Role == me.Role || u.ID == me.ID {
			continue
		}
		online := s.presence != nil && s.presence.IsOnline(u.ID)
		contacts = append(contacts, Contact{User: u, Unread: unread[u.ID], Online: online})
	}
	return contacts, nil
}
