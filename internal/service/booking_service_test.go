package service

import (
	"context"
	"testing"
	"time"

	"peertutor/internal/models"
	"peertutor/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mondayAt returns the fixture Monday at hour:00 UTC.
func mondayAt(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

func newBookingService(t *testing.T) (*BookingService, fixture, *recordingNotifier, *recordingMailer) {
	t.Helper()
	f := newFixture(t)
	n := &recordingNotifier{}
	m := &recordingMailer{}
	svc := NewBookingService(f.store, n, m)
	svc.now = func() time.Time { return testNow }
	return svc, f, n, m
}

func TestBookingService_Slots(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)

	slots, err := svc.Slots(f.tutor.ID, mondayAt(0))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00 - 10:00", slots[0].Label)
	assert.Equal(t, "11:00 - 12:00", slots[2].Label)
	assert.True(t, slots[1].Start.Equal(mondayAt(10)))
	assert.True(t, slots[1].End.Equal(mondayAt(11)))

	slots, err = svc.Slots(f.tutor.ID, mondayAt(0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = svc.Slots(f.tutee.ID, mondayAt(0))
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookingService_Slots_OverlappingWindowsDeduplicate(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)
	avail := []models.Availability{
		{Day: "monday", StartTime: "09:00", EndTime: "11:00"},
		{Day: "Monday", StartTime: "10:00", EndTime: "12:00"},
	}
	require.True(t, f.store.UpdateUser(models.UserPatch{ID: f.tutor.ID, Availability: &avail}))

	slots, err := svc.Slots(f.tutor.ID, mondayAt(0))
	require.NoError(t, err)
	assert.Len(t, slots, 3)
}

func TestBookingService_Quote(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)

	q, err := svc.Quote(f.tutor.ID, f.python.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 60, q.Duration)
	assert.Equal(t, 40.0, q.HourlyRate)
	assert.Equal(t, 40.0, q.Amount)

	q, err = svc.Quote(f.tutor.ID, f.algebra.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 30.0, q.HourlyRate)
	assert.Equal(t, 45.0, q.Amount)

	_, err = svc.Quote(f.tutor.ID, f.python.ID, 300)
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.Quote(f.tutor.ID, "sub-missing", 60)
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.Quote("nobody", f.python.ID, 60)
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookingService_Book(t *testing.T) {
	t.Parallel()
	svc, f, n, m := newBookingService(t)
	ctx := context.Background()

	session, err := svc.Book(ctx, BookInput{
		TuteeID:   f.tutee.ID,
		TutorID:   f.tutor.ID,
		SubjectID: f.python.ID,
		DateTime:  mondayAt(10),
		Notes:     "  loops please ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionRequested, session.Status)
	assert.Equal(t, models.ModeOnline, session.Mode)
	assert.Equal(t, 60, session.Duration)
	assert.Equal(t, "Python", session.Subject.Name)
	assert.Equal(t, "loops please", session.Notes)

	events := n.sent()
	require.Len(t, events, 1)
	assert.Equal(t, f.tutor.ID, events[0].UserID)
	assert.Equal(t, notifications.EventSessionRequested, events[0].Event.Type)

	assert.Eventually(t, func() bool { return m.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, f.tutor.Email, m.last().To)

	sessions, err := svc.ListSessions(f.tutee.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	sessions, err = svc.ListSessions(f.tutor.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestBookingService_Book_Rejects(t *testing.T) {
	t.Parallel()
	svc, f, n, _ := newBookingService(t)

	valid := BookInput{TuteeID: f.tutee.ID, TutorID: f.tutor.ID, SubjectID: f.python.ID, DateTime: mondayAt(10)}
	tests := []struct {
		name   string
		mutate func(*BookInput)
		code   string
	}{
		{"tutor books", func(in *BookInput) { in.TuteeID = f.tutor.ID }, models.CodeForbidden},
		{"unknown tutor", func(in *BookInput) { in.TutorID = "nobody" }, models.CodeNotFound},
		{"foreign subject", func(in *BookInput) { in.SubjectID = "sub-missing" }, models.CodeValidation},
		{"bad mode", func(in *BookInput) { in.Mode = "teleport" }, models.CodeValidation},
		{"in the past", func(in *BookInput) { in.DateTime = testNow.Add(-time.Hour) }, models.CodeValidation},
		{"outside availability", func(in *BookInput) { in.DateTime = mondayAt(14) }, models.CodeValidation},
		{"off the hour", func(in *BookInput) { in.DateTime = mondayAt(10).Add(30 * time.Minute) }, models.CodeValidation},
		{"too long", func(in *BookInput) { in.Duration = 500 }, models.CodeValidation},
		{"runs past availability", func(in *BookInput) { in.DateTime = mondayAt(11); in.Duration = 120 }, models.CodeValidation},
		{"partial hour past availability", func(in *BookInput) { in.DateTime = mondayAt(11); in.Duration = 61 }, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Book(context.Background(), in)
			assertAppError(t, err, tt.code)
		})
	}
	assert.Empty(t, f.store.ListSessions())
	assert.Empty(t, n.sent())
}

func TestBookingService_Book_MultiHour(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)

	for _, tc := range []struct {
		hour, minutes int
	}{
		{9, 90},
		{10, 120},
		{9, 180},
	} {
		session, err := svc.Book(context.Background(), BookInput{
			TuteeID: f.tutee.ID, TutorID: f.tutor.ID, SubjectID: f.python.ID,
			DateTime: mondayAt(tc.hour), Duration: tc.minutes,
		})
		require.NoError(t, err, "%02d:00 for %d minutes", tc.hour, tc.minutes)
		assert.Equal(t, tc.minutes, session.Duration)
	}
}

func bookPython(t *testing.T, svc *BookingService, f fixture, mode models.SessionMode) models.TutorSession {
	t.Helper()
	session, err := svc.Book(context.Background(), BookInput{
		TuteeID:   f.tutee.ID,
		TutorID:   f.tutor.ID,
		SubjectID: f.python.ID,
		DateTime:  mondayAt(10),
		Mode:      mode,
	})
	require.NoError(t, err)
	return session
}

func TestBookingService_Respond(t *testing.T) {
	t.Parallel()
	svc, f, n, m := newBookingService(t)
	ctx := context.Background()

	online := bookPython(t, svc, f, models.ModeOnline)
	inPerson := bookPython(t, svc, f, models.ModeInPerson)

	_, err := svc.Respond(ctx, f.tutee.ID, online.ID, true)
	assertAppError(t, err, models.CodeForbidden)
	_, err = svc.Respond(ctx, f.tutor.ID, "missing", true)
	assertAppError(t, err, models.CodeNotFound)

	confirmed, err := svc.Respond(ctx, f.tutor.ID, online.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SessionConfirmed, confirmed.Status)
	assert.Equal(t, "https://meet.peertutor.app/"+online.ID, confirmed.MeetingLink)

	stored, err := svc.GetSession(f.tutee.ID, online.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmed.MeetingLink, stored.MeetingLink)

	_, err = svc.Respond(ctx, f.tutor.ID, online.ID, false)
	assertAppError(t, err, models.CodeConflict)

	declined, err := svc.Respond(ctx, f.tutor.ID, inPerson.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, declined.Status)
	assert.Empty(t, declined.MeetingLink)

	last := n.sent()[len(n.sent())-1]
	assert.Equal(t, f.tutee.ID, last.UserID)
	assert.Equal(t, notifications.EventSessionUpdated, last.Event.Type)

	// Two request mails and two decisions.
	assert.Eventually(t, func() bool { return m.count() == 4 }, time.Second, 10*time.Millisecond)
}

func TestBookingService_GetSession_Forbidden(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)
	session := bookPython(t, svc, f, "")

	_, err := svc.GetSession("someone-else", session.ID)
	assertAppError(t, err, models.CodeForbidden)
	_, err = svc.GetSession(f.tutor.ID, "missing")
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookingService_Dashboard(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)
	ctx := context.Background()

	first := bookPython(t, svc, f, "")
	second, err := svc.Book(ctx, BookInput{TuteeID: f.tutee.ID, TutorID: f.tutor.ID, SubjectID: f.python.ID, DateTime: mondayAt(9)})
	require.NoError(t, err)
	_, err = svc.Respond(ctx, f.tutor.ID, first.ID, true)
	require.NoError(t, err)

	past := f.store.AddSession(models.TutorSession{
		TutorID: f.tutor.ID, TuteeID: f.tutee.ID, Subject: f.python,
		DateTime: testNow.Add(-48 * time.Hour), Duration: 60, Status: models.SessionCompleted,
	})
	require.NotEmpty(t, past.ID)

	d, err := svc.Dashboard(f.tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, d.Role)
	require.Len(t, d.Upcoming, 2)
	assert.Equal(t, second.ID, d.Upcoming[0].ID)
	assert.Equal(t, first.ID, d.Upcoming[1].ID)
	require.Len(t, d.Pending, 1)
	assert.Equal(t, second.ID, d.Pending[0].ID)
	assert.Equal(t, 1, d.Completed)

	d, err = svc.Dashboard(f.tutee.ID)
	require.NoError(t, err)
	assert.Len(t, d.Upcoming, 2)
	assert.Empty(t, d.Pending)

	_, err = svc.Dashboard("nobody")
	assertAppError(t, err, models.CodeNotFound)
}

func TestBookingService_CompleteElapsed(t *testing.T) {
	t.Parallel()
	svc, f, n, _ := newBookingService(t)
	ctx := context.Background()

	confirmed := bookPython(t, svc, f, "")
	_, err := svc.Respond(ctx, f.tutor.ID, confirmed.ID, true)
	require.NoError(t, err)
	requested := bookPython(t, svc, f, "")

	assert.Equal(t, 0, svc.CompleteElapsed(ctx))

	svc.now = func() time.Time { return mondayAt(11).Add(time.Minute) }
	before := len(n.sent())
	assert.Equal(t, 1, svc.CompleteElapsed(ctx))
	assert.Len(t, n.sent(), before+2)

	done, ok := f.store.GetSession(confirmed.ID)
	require.True(t, ok)
	assert.Equal(t, models.SessionCompleted, done.Status)
	still, ok := f.store.GetSession(requested.ID)
	require.True(t, ok)
	assert.Equal(t, models.SessionRequested, still.Status)

	assert.Equal(t, 0, svc.CompleteElapsed(ctx))
}

func TestBookingService_RemindUpcoming(t *testing.T) {
	t.Parallel()
	svc, f, n, m := newBookingService(t)
	ctx := context.Background()

	session := bookPython(t, svc, f, "")
	_, err := svc.Respond(ctx, f.tutor.ID, session.ID, true)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return m.count() == 2 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, svc.RemindUpcoming(ctx), "too early")

	svc.now = func() time.Time { return mondayAt(9) }
	before := len(n.sent())
	assert.Equal(t, 1, svc.RemindUpcoming(ctx))

	events := n.sent()[before:]
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, notifications.EventSessionReminder, ev.Event.Type)
	}
	assert.Eventually(t, func() bool { return m.count() == 4 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, svc.RemindUpcoming(ctx), "already reminded")
	assert.Len(t, svc.reminded, 1)

	// Once the session starts it can never be reminded again.
	svc.now = func() time.Time { return mondayAt(10) }
	assert.Equal(t, 0, svc.RemindUpcoming(ctx))
	assert.Empty(t, svc.reminded)
}

func TestBookingService_RemindUpcoming_ForgetsCancelled(t *testing.T) {
	t.Parallel()
	svc, f, _, _ := newBookingService(t)
	ctx := context.Background()

	session := bookPython(t, svc, f, "")
	_, err := svc.Respond(ctx, f.tutor.ID, session.ID, true)
	require.NoError(t, err)

	svc.now = func() time.Time { return mondayAt(9) }
	assert.Equal(t, 1, svc.RemindUpcoming(ctx))
	require.Len(t, svc.reminded, 1)

	_, ok := f.store.TransitionSession(session.ID, models.SessionConfirmed, models.SessionCancelled)
	require.True(t, ok)
	assert.Equal(t, 0, svc.RemindUpcoming(ctx))
	assert.Empty(t, svc.reminded)
}
