package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"peertutor/internal/mailer"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sunday noon; fixture availability is on Monday.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sentEvent struct {
	UserID string
	Event  notifications.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, ev notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{UserID: userID, Event: ev})
}

func (r *recordingNotifier) sent() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEvent(nil), r.events...)
}

type recordingMailer struct {
	mu   sync.Mutex
	mail []mailer.Mail
}

func (r *recordingMailer) Send(_ context.Context, m mailer.Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mail = append(r.mail, m)
	return nil
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mail)
}

func (r *recordingMailer) last() mailer.Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mail[len(r.mail)-1]
}

type fixture struct {
	store   *store.Store
	tutor   models.User
	tutee   models.User
	python  models.Subject
	algebra models.Subject
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := store.New()

	tutor, err := s.AddUser(models.TutorProfile{
		User:         models.User{ID: "tutor-1", Email: "ada@example.com", Name: "Ada Lovelace", Role: models.RoleTutor},
		HourlyRate:   30,
		Availability: []models.Availability{{Day: "Monday", StartTime: "09:00", EndTime: "12:00"}},
	})
	require.NoError(t, err)
	tutee, err := s.AddUser(models.TuteeProfile{
		User: models.User{ID: "tutee-1", Email: "sam@example.com", Name: "Sam Student", Role: models.RoleTutee},
	})
	require.NoError(t, err)

	python := s.AddSubject(models.Subject{ID: "sub-py", Name: "Python", Level: models.LevelBeginner, TutorID: tutor.ID, HourlyRate: 40})
	algebra := s.AddSubject(models.Subject{ID: "sub-alg", Name: "Algebra", Level: models.LevelIntermediate, TutorID: tutor.ID})

	return fixture{store: s, tutor: tutor, tutee: tutee, python: python, algebra: algebra}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}
