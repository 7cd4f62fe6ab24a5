// Package models contains data structures for the marketplace domain.
package models

import "time"

// UserRole distinguishes tutors from tutees. It is fixed at creation.
type UserRole string

const (
	RoleTutor UserRole = "tutor"
	RoleTutee UserRole = "tutee"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleTutor || r == RoleTutee
}

// User holds the fields shared by every account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           UserRole  `json:"role"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Account is implemented by the role-specific profiles.
type Account interface {
	Identity() User
}

// TutorProfile is a User with role tutor.
type TutorProfile struct {
	User
	Subjects       []Subject      `json:"subjects"`
	Qualifications []string       `json:"qualifications"`
	HourlyRate     float64        `json:"hourly_rate"`
	Availability   []Availability `json:"availability"`
	Rating         float64        `json:"rating"`
	ReviewCount    int            `json:"review_count"`
	// Modes lists the session modes the tutor offers. Empty means unspecified.
	Modes []SessionMode `json:"modes,omitempty"`
}

func (p TutorProfile) Identity() User { return p.User }

// TuteeProfile is a User with role tutee.
type TuteeProfile struct {
	User
	Interests           []Subject `json:"interests"`
	LearningPreferences []string  `json:"learning_preferences,omitempty"`
}

func (p TuteeProfile) Identity() User { return p.User }

// UserPatch is a shallow partial update. Nil fields are left untouched.
// Role-specific fields apply only to profiles of that role.
type UserPatch struct {
	ID             string
	Name           *string
	Email          *string
	ProfilePicture *string
	Bio            *string

	Qualifications *[]string
	HourlyRate     *float64
	Availability   *[]Availability
	Modes          *[]SessionMode

	Interests           *[]Subject
	LearningPreferences *[]string
}

// UserCredential is the auth record looked up by email.
type UserCredential struct {
	Email    string `json:"email"`
	Password string `json:"-"`
	UserID   string `json:"user_id"`
}
