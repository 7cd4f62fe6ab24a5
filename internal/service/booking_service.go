package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"peertutor/internal/mailer"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/observability"
	"peertutor/internal/store"
	"peertutor/internal/validation"
)

const (
	defaultSessionMinutes = 60
	maxSessionMinutes     = 240
	meetingLinkBase       = "https://meet.peertutor.app/"

	reminderLead   = 55 * time.Minute
	reminderWindow = 10 * time.Minute
)

type BookingService struct {
	store    *store.Store
	notifier EventNotifier
	mail     mailer.Mailer
	now      func() time.Time

	mu       sync.Mutex
	reminded map[string]struct{}
}

// Slot is a bookable one-hour window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Quote is the amount due for a prospective booking.
type Quote struct {
	TutorID    string  `json:"tutor_id"`
	SubjectID  string  `json:"subject_id"`
	HourlyRate float64 `json:"hourly_rate"`
	Duration   int     `json:"duration"`
	Amount     float64 `json:"amount"`
}

type BookInput struct {
	TuteeID   string
	TutorID   string
	SubjectID string
	DateTime  time.Time
	Duration  int
	Mode      models.SessionMode
	Notes     string
}

// Dashboard summarizes a user's sessions.
type Dashboard struct {
	Role      models.UserRole       `json:"role"`
	Upcoming  []models.TutorSession `json:"upcoming"`
	Pending   []models.TutorSession `json:"pending"`
	Completed int                   `json:"completed"`
}

func NewBookingService(s *store.Store, n EventNotifier, m mailer.Mailer) *BookingService {
	return &BookingService{
		store:    s,
		notifier: notifierOrNoop(n),
		mail:     m,
		now:      time.Now,
		reminded: make(map[string]struct{}),
	}
}

func clockHour(hhmm string) (int, bool) {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 24 {
		return 0, false
	}
	return n, true
}

// Slots lists the tutor's one-hour slots on the weekday of date, in date's
// location. Each availability window contributes one slot per whole hour
// from its start hour up to its end hour.
func (s *BookingService) Slots(tutorID string, date time.Time) ([]Slot, error) {
	tutor, err := requireTutor(s.store, tutorID)
	if err != nil {
		return nil, err
	}

	day := date.Weekday().String()
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	slots := []Slot{}
	for _, a := range tutor.Availability {
		if !strings.EqualFold(a.Day, day) {
			continue
		}
		from, okFrom := clockHour(a.StartTime)
		to, okTo := clockHour(a.EndTime)
		if !okFrom || !okTo {
			continue
		}
		for h := from; h < to; h++ {
			start := midnight.Add(time.Duration(h) * time.Hour)
			slots = append(slots, Slot{
				Start: start,
				End:   start.Add(time.Hour),
				Label: fmt.Sprintf("%02d:00 - %02d:00", h, h+1),
			})
		}
	}
	slices.SortFunc(slots, func(a, b Slot) int { return a.Start.Compare(b.Start) })
	return slices.CompactFunc(slots, func(a, b Slot) bool { return a.Start.Equal(b.Start) }), nil
}

// coveredBySlots reports whether every hour touched by a session of
// minutes starting at start is one of slots.
func coveredBySlots(slots []Slot, start time.Time, minutes int) bool {
	hours := (minutes + 59) / 60
	for h := range hours {
		at := start.Add(time.Duration(h) * time.Hour)
		if !slices.ContainsFunc(slots, func(sl Slot) bool { return sl.Start.Equal(at) }) {
			return false
		}
	}
	return true
}

func (s *BookingService) tutorSubject(tutor models.TutorProfile, subjectID string) (models.Subject, error) {
	for _, sub := range tutor.Subjects {
		if sub.ID == subjectID {
			return sub, nil
		}
	}
	return models.Subject{}, models.NewValidationError("tutor does not teach subject " + subjectID)
}

// Quote prices a session at the subject's hourly rate, falling back to the
// tutor's rate when the subject has none.
func (s *BookingService) Quote(tutorID, subjectID string, duration int) (Quote, error) {
	tutor, err := requireTutor(s.store, tutorID)
	if err != nil {
		return Quote{}, err
	}
	sub, err := s.tutorSubject(tutor, subjectID)
	if err != nil {
		return Quote{}, err
	}
	if duration == 0 {
		duration = defaultSessionMinutes
	}
	if duration < 0 || duration > maxSessionMinutes {
		return Quote{}, models.NewValidationError(fmt.Sprintf("duration must be between 1 and %d minutes", maxSessionMinutes))
	}

	rate := sub.HourlyRate
	if rate <= 0 {
		rate = tutor.HourlyRate
	}
	return Quote{
		TutorID:    tutorID,
		SubjectID:  subjectID,
		HourlyRate: rate,
		Duration:   duration,
		Amount:     rate * float64(duration) / 60,
	}, nil
}

func (s *BookingService) Book(ctx context.Context, in BookInput) (models.TutorSession, error) {
	callLog.LogServiceCall(ctx, "booking", "book", map[string]any{"tutor_id": in.TutorID})

	tutee, ok := s.store.GetTutee(in.TuteeID)
	if !ok {
		return models.TutorSession{}, models.NewForbiddenError("Only tutees can book sessions")
	}
	quote, err := s.Quote(in.TutorID, in.SubjectID, in.Duration)
	if err != nil {
		return models.TutorSession{}, err
	}
	tutor, _ := s.store.GetTutor(in.TutorID)
	sub, _ := s.tutorSubject(tutor, in.SubjectID)

	mode := in.Mode
	if mode == "" {
		mode = models.ModeOnline
	}
	if !mode.Valid() {
		return models.TutorSession{}, models.NewValidationError("mode must be online or in-person")
	}
	if err := validation.ValidateSessionStart(in.DateTime, s.now()); err != nil {
		return models.TutorSession{}, models.NewValidationError(err.Error())
	}

	slots, err := s.Slots(in.TutorID, in.DateTime)
	if err != nil {
		return models.TutorSession{}, err
	}
	if !coveredBySlots(slots, in.DateTime, quote.Duration) {
		return models.TutorSession{}, models.NewValidationError("the tutor is not available for the whole requested time")
	}

	session := s.store.AddSession(models.TutorSession{
		TutorID:  in.TutorID,
		TuteeID:  in.TuteeID,
		Subject:  sub,
		DateTime: in.DateTime,
		Duration: quote.Duration,
		Status:   models.SessionRequested,
		Mode:     mode,
		Notes:    strings.TrimSpace(in.Notes),
	})
	observability.SessionTransitionsTotal.WithLabelValues(string(models.SessionRequested)).Inc()

	s.notifier.Notify(ctx, tutor.ID, notifications.Event{Type: notifications.EventSessionRequested, Payload: session})
	sendMail(ctx, s.mail, mailer.BookingRequestedMail(tutor.User, tutee.Name, session))
	return session, nil
}

// Respond lets the owning tutor confirm or decline a requested session.
func (s *BookingService) Respond(ctx context.Context, tutorID, sessionID string, accept bool) (models.TutorSession, error) {
	callLog.LogServiceCall(ctx, "booking", "respond", map[string]any{"session_id": sessionID, "accept": accept})

	current, ok := s.store.GetSession(sessionID)
	if !ok {
		return models.TutorSession{}, models.NewNotFoundError("Session", sessionID)
	}
	if current.TutorID != tutorID {
		return models.TutorSession{}, models.NewForbiddenError("Only the session's tutor can respond to it")
	}

	target := models.SessionCancelled
	if accept {
		target = models.SessionConfirmed
	}
	updated, ok := s.store.TransitionSession(sessionID, models.SessionRequested, target)
	if !ok {
		return models.TutorSession{}, models.NewConflictError(fmt.Sprintf("session is %s, not requested", current.Status))
	}
	if accept && updated.Mode == models.ModeOnline && updated.MeetingLink == "" {
		link := meetingLinkBase + updated.ID
		s.store.UpdateSession(updated.ID, models.SessionPatch{MeetingLink: &link})
		updated.MeetingLink = link
	}
	observability.SessionTransitionsTotal.WithLabelValues(string(target)).Inc()

	s.notifier.Notify(ctx, updated.TuteeID, notifications.Event{Type: notifications.EventSessionUpdated, Payload: updated})
	if tutee, ok := s.store.FindUserByID(updated.TuteeID); ok {
		tutorName := ""
		if tutor, ok := s.store.FindUserByID(tutorID); ok {
			tutorName = tutor.Name
		}
		sendMail(ctx, s.mail, mailer.BookingDecisionMail(tutee, tutorName, updated))
	}
	return updated, nil
}

func (s *BookingService) GetSession(userID, sessionID string) (models.TutorSession, error) {
	ts, ok := s.store.GetSession(sessionID)
	if !ok {
		return models.TutorSession{}, models.NewNotFoundError("Session", sessionID)
	}
	if ts.TutorID != userID && ts.TuteeID != userID {
		return models.TutorSession{}, models.NewForbiddenError("You are not part of this session")
	}
	return ts, nil
}

// ListSessions returns the caller's sessions by role.
func (s *BookingService) ListSessions(userID string) ([]models.TutorSession, error) {
	user, err := requireUser(s.store, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleTutor {
		return s.store.GetTutorSessions(userID), nil
	}
	return s.store.GetTuteeSessions(userID), nil
}

// Dashboard lists upcoming requested or confirmed sessions, soonest first.
// Tutors also get the requests awaiting their answer.
func (s *BookingService) Dashboard(userID string) (Dashboard, error) {
	user, err := requireUser(s.store, userID)
	if err != nil {
		return Dashboard{}, err
	}
	sessions, _ := s.ListSessions(userID)

	now := s.now()
	d := Dashboard{Role: user.Role, Upcoming: []models.TutorSession{}, Pending: []models.TutorSession{}}
	for _, ts := range sessions {
		switch ts.Status {
		case models.SessionCompleted:
			d.Completed++
		case models.SessionRequested, models.SessionConfirmed:
			if ts.EndsAt().After(now) {
				d.Upcoming = append(d.Upcoming, ts)
			}
			if user.Role == models.RoleTutor && ts.Status == models.SessionRequested {
				d.Pending = append(d.Pending, ts)
			}
		}
	}
	byStart := func(a, b models.TutorSession) int { return a.DateTime.Compare(b.DateTime) }
	slices.SortStableFunc(d.Upcoming, byStart)
	slices.SortStableFunc(d.Pending, byStart)
	return d, nil
}

// CompleteElapsed marks confirmed sessions whose end time has passed as
// completed and returns how many changed.
func (s *BookingService) CompleteElapsed(ctx context.Context) int {
	now := s.now()
	n := 0
	for _, ts := range s.store.ListSessions() {
		if ts.Status != models.SessionConfirmed || ts.EndsAt().After(now) {
			continue
		}
		updated, ok := s.store.TransitionSession(ts.ID, models.SessionConfirmed, models.SessionCompleted)
		if !ok {
			continue
		}
		n++
		observability.SessionTransitionsTotal.WithLabelValues(string(models.SessionCompleted)).Inc()
		ev := notifications.Event{Type: notifications.EventSessionUpdated, Payload: updated}
		s.notifier.Notify(ctx, updated.TutorID, ev)
		s.notifier.Notify(ctx, updated.TuteeID, ev)
	}
	return n
}

// RemindUpcoming notifies both participants of confirmed sessions starting
// 55 to 65 minutes from now. Each session is reminded at most once. Marks
// for sessions that can no longer enter the window are dropped.
func (s *BookingService) RemindUpcoming(ctx context.Context) int {
	now := s.now()
	from, to := now.Add(reminderLead), now.Add(reminderLead+reminderWindow)

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.store.ListSessions()
	live := make(map[string]struct{}, len(s.reminded))
	for _, ts := range sessions {
		if ts.Status == models.SessionConfirmed && !ts.DateTime.Before(from) {
			live[ts.ID] = struct{}{}
		}
	}
	for id := range s.reminded {
		if _, ok := live[id]; !ok {
			delete(s.reminded, id)
		}
	}

	n := 0
	for _, ts := range sessions {
		if ts.Status != models.SessionConfirmed || ts.DateTime.Before(from) || ts.DateTime.After(to) {
			continue
		}
		if _, done := s.reminded[ts.ID]; done {
			continue
		}
		s.reminded[ts.ID] = struct{}{}
		n++

		ev := notifications.Event{Type: notifications.EventSessionReminder, Payload: ts}
		for _, id := range []string{ts.TutorID, ts.TuteeID} {
			s.notifier.Notify(ctx, id, ev)
			if u, ok := s.store.FindUserByID(id); ok {
				sendMail(ctx, s.mail, mailer.ReminderMail(u, ts))
			}
		}
	}
	return n
}
