package store

import (
	"peertutor/internal/models"
)

// AddMessage stores a chat message.
func (s *Store) AddMessage(m models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id(m.ID)
	m.Timestamp = s.stamp(m.Timestamp)
	stored := m
	s.messages = append(s.messages, &stored)
	return stored
}

// GetConversation returns the messages exchanged between a and b in the
// order they were stored.
func (s *Store) GetConversation(a, b string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	return out
}

// MarkConversationRead marks every unread message from other to reader as
// read and returns how many changed.
func (s *Store) MarkConversationRead(reader, other string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.SenderID == other && m.ReceiverID == reader && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n
}

// UnreadCounts returns, per sender, how many messages to reader are unread.
func (s *Store) UnreadCounts(reader string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for _, m := range s.messages {
		if m.ReceiverID == reader && !m.IsRead {
			out[m.SenderID]++
		}
	}
	return out
}
