package models

import "time"

// SessionStatus is the lifecycle state of a TutorSession.
type SessionStatus string

const (
	SessionRequested SessionStatus = "requested"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionMode is how a session is held.
type SessionMode string

const (
	ModeOnline   SessionMode = "online"
	ModeInPerson SessionMode = "in-person"
)

// Valid reports whether m is a known mode.
func (m SessionMode) Valid() bool {
	return m == ModeOnline || m == ModeInPerson
}

// TutorSession is a booked tutoring session.
type TutorSession struct {
	ID          string        `json:"id"`
	TutorID     string        `json:"tutor_id"`
	TuteeID     string        `json:"tutee_id"`
	Subject     Subject       `json:"subject"`
	DateTime    time.Time     `json:"date_time"`
	Duration    int           `json:"duration"`
	Status      SessionStatus `json:"status"`
	Mode        SessionMode   `json:"mode"`
	Notes       string        `json:"notes,omitempty"`
	MeetingLink string        `json:"meeting_link,omitempty"`
}

// EndsAt returns the scheduled end of the session.
func (s TutorSession) EndsAt() time.Time {
	return s.DateTime.Add(time.Duration(s.Duration) * time.Minute)
}

// SessionPatch is a partial session update. Nil fields are left untouched.
type SessionPatch struct {
	Status      *SessionStatus
	DateTime    *time.Time
	Duration    *int
	Mode        *SessionMode
	Notes       *string
	MeetingLink *string
}
