package service

import (
	"context"
	"strings"

	"peertutor/internal/featureflags"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/observability"
	"peertutor/internal/store"
	"peertutor/internal/validation"
)

type MessageService struct {
	store    *store.Store
	notifier EventNotifier
	flags    *featureflags.Manager
}

func NewMessageService(s *store.Store, n EventNotifier, flags *featureflags.Manager) *MessageService {
	return &MessageService{store: s, notifier: notifierOrNoop(n), flags: flags}
}

func (s *MessageService) Conversation(userID, otherID string) ([]models.Message, error) {
	if _, err := requireUser(s.store, otherID); err != nil {
		return nil, err
	}
	return s.store.GetConversation(userID, otherID), nil
}

func (s *MessageService) MarkRead(userID, otherID string) (int, error) {
	if _, err := requireUser(s.store, otherID); err != nil {
		return 0, err
	}
	return s.store.MarkConversationRead(userID, otherID), nil
}

// Send stores a message and pushes it to the recipient. With the
// chat_autoreply flag on for the sender, a tutor recipient answers with a
// canned reply.
func (s *MessageService) Send(ctx context.Context, fromID, toID, text string) (models.Message, error) {
	callLog.LogServiceCall(ctx, "message", "send", map[string]any{"to": toID})

	if fromID == toID {
		return models.Message{}, models.NewValidationError("cannot message yourself")
	}
	if _, err := requireUser(s.store, fromID); err != nil {
		return models.Message{}, err
	}
	recipient, err := requireUser(s.store, toID)
	if err != nil {
		return models.Message{}, err
	}
	if err := validation.ValidateMessage(text); err != nil {
		return models.Message{}, models.NewValidationError(err.Error())
	}

	msg := s.store.AddMessage(models.Message{SenderID: fromID, ReceiverID: toID, Text: text})
	observability.ChatMessagesTotal.WithLabelValues("user").Inc()
	s.notifier.Notify(ctx, toID, notifications.Event{Type: notifications.EventChatMessage, Payload: msg})

	if recipient.Role == models.RoleTutor && s.flags.Enabled(featureflags.ChatAutoReply, fromID) {
		reply := s.store.AddMessage(models.Message{SenderID: toID, ReceiverID: fromID, Text: AutoReply(text)})
		observability.ChatMessagesTotal.WithLabelValues("autoreply").Inc()
		s.notifier.Notify(ctx, fromID, notifications.Event{Type: notifications.EventChatMessage, Payload: reply})
	}
	return msg, nil
}

// AutoReply picks a canned answer by keyword. Matching is by substring, so
// "hi" also fires inside longer words.
func AutoReply(text string) string {
	t := strings.ToLower(text)
	has := func(s string) bool { return strings.Contains(t, s) }
	switch {
	case has("hello") || has("hi"):
		return "Hello! How can I help you with your studies today?"
	case has("help") && has("math"):
		return "I'd be happy to help with math! What specific topic are you struggling with?"
	case has("when") && has("available"):
		return "I'm available most weekdays after 3pm and weekends. Would you like to schedule a session?"
	case has("book") || has("schedule"):
		return `Great! You can book a session by going to my profile and clicking "Book Session". Looking forward to it!`
	case has("thank"):
		return "You're welcome! Let me know if you need anything else."
	default:
		return "Thanks for your message. I'll get back to you as soon as possible."
	}
}
