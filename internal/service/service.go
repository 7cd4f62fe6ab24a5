// Package service implements the marketplace use cases on top of the
// in-memory store.
package service

import (
	"context"

	"peertutor/internal/mailer"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/observability"
	"peertutor/internal/store"
)

// EventNotifier pushes realtime events to a user's connections.
type EventNotifier interface {
	Notify(ctx context.Context, userID string, ev notifications.Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, notifications.Event) {}

func notifierOrNoop(n EventNotifier) EventNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

var callLog = observability.NewStructuredLogger()

// sendMail delivers m in the background; failures are logged by the mailer.
func sendMail(ctx context.Context, m mailer.Mailer, mail mailer.Mail) {
	if m == nil || mail.To == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		_ = m.Send(ctx, mail)
	}()
}

func requireUser(s *store.Store, id string) (models.User, error) {
	u, ok := s.FindUserByID(id)
	if !ok {
		return models.User{}, models.NewNotFoundError("User", id)
	}
	return u, nil
}

func requireTutor(s *store.Store, id string) (models.TutorProfile, error) {
	t, ok := s.GetTutor(id)
	if !ok {
		return models.TutorProfile{}, models.NewNotFoundError("Tutor", id)
	}
	return t, nil
}
