package mailer

import (
	"fmt"
	"html"
	"time"

	"peertutor/internal/models"
)

const sessionLayout = "Monday, Jan 2 2006 at 15:04"

// OTPMail carries a password reset code.
func OTPMail(to, code string, ttl time.Duration) Mail {
	return Mail{
		Kind:    "otp",
		To:      to,
		Subject: "Your password reset code",
		Body: fmt.Sprintf(
			"<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
			html.EscapeString(code), int(ttl.Minutes()),
		),
	}
}

// BookingRequestedMail tells a tutor a tutee asked for a session.
func BookingRequestedMail(tutor models.User, tuteeName string, s models.TutorSession) Mail {
	return Mail{
		Kind:    "booking",
		To:      tutor.Email,
		Subject: "New session request",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>%s requested a %d minute %s session (%s) on %s.</p>",
			html.EscapeString(tutor.Name), html.EscapeString(tuteeName), s.Duration,
			html.EscapeString(s.Subject.Name), s.Mode, s.DateTime.Format(sessionLayout),
		),
	}
}

// BookingDecisionMail tells a tutee whether the tutor confirmed or cancelled.
func BookingDecisionMail(tutee models.User, tutorName string, s models.TutorSession) Mail {
	verb := "confirmed"
	if s.Status == models.SessionCancelled {
		verb = "declined"
	}
	return Mail{
		Kind:    "booking",
		To:      tutee.Email,
		Subject: fmt.Sprintf("Session %s", verb),
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>%s %s your %s session on %s.</p>",
			html.EscapeString(tutee.Name), html.EscapeString(tutorName), verb,
			html.EscapeString(s.Subject.Name), s.DateTime.Format(sessionLayout),
		),
	}
}

// ReminderMail reminds a participant of a session starting soon.
func ReminderMail(to models.User, s models.TutorSession) Mail {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your %s session starts at %s.</p>",
		html.EscapeString(to.Name), html.EscapeString(s.Subject.Name), s.DateTime.Format("15:04"),
	)
	if s.MeetingLink != "" {
		body += fmt.Sprintf(`<p><a href="%s">Join the meeting</a></p>`, html.EscapeString(s.MeetingLink))
	}
	return Mail{
		Kind:    "reminder",
		To:      to.Email,
		Subject: "Session reminder",
		Body:    body,
	}
}
