package service

import (
	"context"
	"strings"

	"peertutor/internal/models"
	"peertutor/internal/store"
	"peertutor/internal/validation"
)

type FeedbackService struct {
	store *store.Store
}

type FeedbackInput struct {
	SessionID string
	FromID    string
	Rating    int
	Comment   string
}

func NewFeedbackService(s *store.Store) *FeedbackService {
	return &FeedbackService{store: s}
}

func (s *FeedbackService) ForSession(userID, sessionID string) ([]models.Feedback, error) {
	ts, ok := s.store.GetSession(sessionID)
	if !ok {
		return nil, models.NewNotFoundError("Session", sessionID)
	}
	if ts.TutorID != userID && ts.TuteeID != userID {
		return nil, models.NewForbiddenError("You are not part of this session")
	}
	return s.store.GetSessionFeedback(sessionID), nil
}

// Submit records one participant's rating of the other. A session takes
// one feedback per participant, once it is confirmed or completed. Ratings
// of tutors feed their average.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (models.Feedback, error) {
	callLog.LogServiceCall(ctx, "feedback", "submit", map[string]any{"session_id": in.SessionID})

	ts, ok := s.store.GetSession(in.SessionID)
	if !ok {
		return models.Feedback{}, models.NewNotFoundError("Session", in.SessionID)
	}

	var toID string
	switch in.FromID {
	case ts.TuteeID:
		toID = ts.TutorID
	case ts.TutorID:
		toID = ts.TuteeID
	default:
		return models.Feedback{}, models.NewForbiddenError("You are not part of this session")
	}

	if ts.Status != models.SessionConfirmed && ts.Status != models.SessionCompleted {
		return models.Feedback{}, models.NewConflictError("Feedback opens once the session is confirmed")
	}
	if err := validation.ValidateRating(in.Rating); err != nil {
		return models.Feedback{}, models.NewValidationError(err.Error())
	}
	comment := strings.TrimSpace(in.Comment)
	if err := validation.ValidateComment(comment); err != nil {
		return models.Feedback{}, models.NewValidationError(err.Error())
	}
	fb, ok := s.store.AddSessionFeedback(models.Feedback{
		SessionID: in.SessionID,
		FromID:    in.FromID,
		ToID:      toID,
		Rating:    in.Rating,
		Comment:   comment,
	})
	if !ok {
		return models.Feedback{}, models.NewConflictError("You already left feedback for this session")
	}
	return fb, nil
}
