package models

import "time"

// Resource is study material uploaded by a tutor.
type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url"`
	UploadedBy  string    `json:"uploaded_by"`
	Subject     Subject   `json:"subject"`
	CreatedAt   time.Time `json:"created_at"`
	FileType    string    `json:"file_type"`
	Size        int64     `json:"size"`
}

// Feedback is a rating left by one session participant about the other.
type Feedback struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a direct chat message between two users.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}
