// Package validation holds the form rules applied before data reaches the store.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"peertutor/internal/models"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 100
	MaxBioLength      = 500
	MaxCommentLength  = 1000
	MaxMessageLength  = 2000
	MaxResourceSize   = 10 << 20
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	resourceTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/zip",
		"image/jpeg",
		"image/png",
	}
)

// ValidateEmail checks the address shape and length.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	return nil
}

// ValidatePassword enforces the length rule of the sign-up form.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateName requires a non-blank display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name must not exceed %d characters", MaxNameLength)
	}
	return nil
}

// ValidateBio caps the profile bio length.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio must not exceed %d characters", MaxBioLength)
	}
	return nil
}

// ValidatePictureURL accepts empty or absolute http(s) URLs.
func ValidatePictureURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("profile picture must be an http or https URL")
	}
	return nil
}

// ValidateAvailability checks a weekly slot: a weekday name and an HH:MM
// window whose start precedes its end.
func ValidateAvailability(a models.Availability) error {
	if !slices.Contains(weekdays, a.Day) {
		return fmt.Errorf("day must be a weekday name such as Monday, got %q", a.Day)
	}
	if !clockRegex.MatchString(a.StartTime) || !clockRegex.MatchString(a.EndTime) {
		return fmt.Errorf("times must use HH:MM")
	}
	if a.StartTime >= a.EndTime {
		return fmt.Errorf("start time %s must be before end time %s", a.StartTime, a.EndTime)
	}
	return nil
}

// ValidateSubject applies the tutor add-subject form rules.
func ValidateSubject(s models.Subject) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("subject name is required")
	}
	switch s.Level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
	default:
		return fmt.Errorf("level must be Beginner, Intermediate or Advanced")
	}
	if s.HourlyRate <= 0 {
		return fmt.Errorf("hourly rate must be greater than zero")
	}
	return nil
}

// ValidateResourceFile checks an upload's size and content type.
func ValidateResourceFile(size int64, contentType string) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxResourceSize {
		return fmt.Errorf("file must not exceed 10MB")
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if !slices.Contains(resourceTypes, strings.TrimSpace(strings.ToLower(mediaType))) {
		return fmt.Errorf("file type %q is not allowed", contentType)
	}
	return nil
}

// ValidateRating requires a whole star rating between 1 and 5.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// ValidateComment caps feedback comment length.
func ValidateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// ValidateMessage requires non-blank chat text.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return fmt.Errorf("message must not exceed %d characters", MaxMessageLength)
	}
	return nil
}

// ValidateSessionStart rejects bookings that do not start in the future.
func ValidateSessionStart(start, now time.Time) error {
	if !start.After(now) {
		return fmt.Errorf("session must start in the future")
	}
	return nil
}
