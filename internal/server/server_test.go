package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peertutor/internal/bootstrap"
	"peertutor/internal/cache"
	"peertutor/internal/config"
	"peertutor/internal/mailer"
	"peertutor/internal/seed"
	"peertutor/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret-that-is-at-least-32-characters"
	fixturePass  = "password123"
	adaEmail     = "ada@peertutor.dev"
	samEmail     = "sam@peertutor.dev"
	adaID        = "tutor-ada"
	samID        = "tutee-sam"
	adaPythonBeg = "sub-python-beg"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:       "0",
		Env:        "test",
		JWTSecret:  testSecret,
		HandoffTTL: time.Minute,
		OTPTTL:     time.Minute,
	}
}

// newTestServer builds a server over the fixture catalog without Redis or
// a database.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	f, err := seed.LoadFixtures()
	require.NoError(t, err)
	st := store.New()
	require.NoError(t, seed.Apply(st, f, bcrypt.MinCost))

	s, err := NewServerWithDeps(testConfig(), &bootstrap.Runtime{
		Store:  st,
		Mailer: mailer.NewLogMailer(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	require.NoError(t, err)
	return s, s.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": fixturePass})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
		Store  store.Stats       `json:"store"`
	}
	decode(t, resp, &out)
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "disabled", out.Checks["redis"])
	assert.Equal(t, "disabled", out.Checks["database"])
	assert.Equal(t, 4, out.Store.Tutors)
}

func TestRegisterAndLogin(t *testing.T) {
	_, app := newTestServer(t)

	body := fiber.Map{"email": "New.Person@Uni.edu", "password": "longenough", "name": "New Person", "role": "tutee"}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, resp, &reg)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "new.person@uni.edu", reg.User["email"])
	assert.Equal(t, "tutee", reg.User["role"])

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "new.person@uni.edu", "password": "longenough"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "new.person@uni.edu", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_Rejects(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		name string
		body fiber.Map
	}{
		{"short password", fiber.Map{"email": "a@b.edu", "password": "short", "name": "A", "role": "tutee"}},
		{"bad role", fiber.Map{"email": "a@b.edu", "password": "longenough", "name": "A", "role": "admin"}},
		{"bad email", fiber.Map{"email": "nope", "password": "longenough", "name": "A", "role": "tutor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestAuthRequired(t *testing.T) {
	_, app := newTestServer(t)
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": adaID,
			"iss": tokenIssuer,
			"aud": tokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not.a.jwt", http.StatusUnauthorized},
		{"valid", signed(t, valid(), testSecret), http.StatusOK},
		{"wrong secret", signed(t, valid(), "another-secret-another-secret-123"), http.StatusUnauthorized},
		{"wrong issuer", func() string { c := valid(); c["iss"] = "someone-else"; return signed(t, c, testSecret) }(), http.StatusUnauthorized},
		{"wrong audience", func() string { c := valid(); c["aud"] = "other"; return signed(t, c, testSecret) }(), http.StatusUnauthorized},
		{"expired", func() string { c := valid(); c["exp"] = time.Now().Add(-time.Hour).Unix(); return signed(t, c, testSecret) }(), http.StatusUnauthorized},
		{"unknown user", func() string { c := valid(); c["sub"] = "ghost"; return signed(t, c, testSecret) }(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodGet, "/api/users/me", tt.token, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	_, app := newTestServer(t)
	token := login(t, app, adaEmail)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	fresh := login(t, app, adaEmail)
	resp = doJSON(t, app, http.MethodGet, "/api/users/me", fresh, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	s, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/forgot-password", "", fiber.Map{"email": "nobody@peertutor.dev"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/forgot-password", "", fiber.Map{"email": samEmail})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	otp, err := s.kv.Get(t.Context(), cache.OTPKey(samEmail))
	require.NoError(t, err)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/verify-otp", "", fiber.Map{"email": samEmail, "otp": otp})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v struct {
		Valid bool `json:"valid"`
	}
	decode(t, resp, &v)
	assert.True(t, v.Valid)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", "", fiber.Map{"email": samEmail, "otp": otp, "password": "brand-new-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": samEmail, "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/search?q=python%20tutor%20on%20monday", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Query struct {
			Subject      string `json:"subject"`
			Availability struct {
				Day string `json:"day"`
			} `json:"availability"`
		} `json:"query"`
		Tutors []struct {
			ID string `json:"id"`
		} `json:"tutors"`
	}
	decode(t, resp, &out)
	assert.Equal(t, "Python", out.Query.Subject)
	assert.Equal(t, "monday", out.Query.Availability.Day)
	require.Len(t, out.Tutors, 1)
	assert.Equal(t, adaID, out.Tutors[0].ID)

	resp = doJSON(t, app, http.MethodPost, "/api/search/parse", "", fiber.Map{"text": "advanced calculus"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var q map[string]any
	decode(t, resp, &q)
	assert.Equal(t, "Calculus", q["subject"])
	assert.Equal(t, "Advanced", q["level"])

	resp = doJSON(t, app, http.MethodGet, "/api/search/time-periods", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchHandoff(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/search/handoff", "", fiber.Map{"text": "chemistry on friday"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var h struct {
		Token string `json:"token"`
	}
	decode(t, resp, &h)
	require.NotEmpty(t, h.Token)

	resp = doJSON(t, app, http.MethodGet, "/api/search/handoff/"+h.Token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Tutors []struct {
			ID string `json:"id"`
		} `json:"tutors"`
	}
	decode(t, resp, &out)
	require.Len(t, out.Tutors, 1)
	assert.Equal(t, "tutor-marie", out.Tutors[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/api/search/handoff/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/search/handoff", "", fiber.Map{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTutorReads(t *testing.T) {
	_, app := newTestServer(t)

	for _, path := range []string{
		"/api/subjects",
		"/api/tutors",
		"/api/tutors/" + adaID,
		"/api/tutors/" + adaID + "/subjects",
		"/api/tutors/" + adaID + "/resources",
		"/api/tutors/" + adaID + "/feedback",
		"/api/resources?subject=Python",
	} {
		resp := doJSON(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/tutors/tutee-sam", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/tutors/"+adaID+"/slots?date=03-02-2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// nextWeekday returns the first date at least two days out falling on day.
func nextWeekday(day time.Weekday) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 2)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

type slotJSON struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
}

type sessionJSON struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	MeetingLink string `json:"meeting_link"`
	Mode        string `json:"mode"`
}

func TestBookingFlow(t *testing.T) {
	_, app := newTestServer(t)
	sam := login(t, app, samEmail)
	ada := login(t, app, adaEmail)

	monday := nextWeekday(time.Monday).Format(time.DateOnly)
	resp := doJSON(t, app, http.MethodGet, "/api/tutors/"+adaID+"/slots?date="+monday, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots []slotJSON
	decode(t, resp, &slots)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00 - 10:00", slots[0].Label)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/quote", sam, fiber.Map{"tutor_id": adaID, "subject_id": adaPythonBeg, "duration": 90})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote struct {
		Amount float64 `json:"amount"`
	}
	decode(t, resp, &quote)
	assert.InDelta(t, 52.5, quote.Amount, 0.001)

	booking := fiber.Map{"tutor_id": adaID, "subject_id": adaPythonBeg, "date_time": slots[0].Start, "notes": "loops"}

	resp = doJSON(t, app, http.MethodPost, "/api/sessions", ada, booking)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions", sam, booking)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booked sessionJSON
	decode(t, resp, &booked)
	assert.Equal(t, "requested", booked.Status)
	assert.Equal(t, "online", booked.Mode)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+booked.ID+"/accept", sam, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+booked.ID+"/accept", ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accepted sessionJSON
	decode(t, resp, &accepted)
	assert.Equal(t, "confirmed", accepted.Status)
	assert.NotEmpty(t, accepted.MeetingLink)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+booked.ID+"/decline", ada, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/dashboard", sam, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash struct {
		Upcoming []sessionJSON `json:"upcoming"`
	}
	decode(t, resp, &dash)
	require.Len(t, dash.Upcoming, 1)
	assert.Equal(t, booked.ID, dash.Upcoming[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/api/sessions/"+booked.ID, ada, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+booked.ID+"/feedback", sam, fiber.Map{"rating": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/sessions/"+booked.ID+"/feedback", ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fb []map[string]any
	decode(t, resp, &fb)
	assert.Len(t, fb, 1)
}

func TestProfileUpdates(t *testing.T) {
	_, app := newTestServer(t)
	ada := login(t, app, adaEmail)
	sam := login(t, app, samEmail)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", ada, fiber.Map{"bio": "Updated bio", "hourly_rate": 42})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tutor map[string]any
	decode(t, resp, &tutor)
	assert.Equal(t, "Updated bio", tutor["bio"])
	assert.EqualValues(t, 42, tutor["hourly_rate"])

	resp = doJSON(t, app, http.MethodPut, "/api/users/me/availability", ada, fiber.Map{
		"availability": []fiber.Map{{"day": "Tuesday", "start_time": "10:00", "end_time": "12:00"}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/users/me/availability", ada, fiber.Map{
		"availability": []fiber.Map{{"day": "Tuesday", "start_time": "12:00", "end_time": "10:00"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/users/me/subjects", ada, fiber.Map{"name": "Rust", "level": "Advanced", "hourly_rate": 60})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/users/me/subjects", sam, fiber.Map{"name": "Rust", "level": "Advanced", "hourly_rate": 60})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/search?q=rust", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Tutors []map[string]any `json:"tutors"`
	}
	decode(t, resp, &out)
	assert.Len(t, out.Tutors, 1)

	resp = doJSON(t, app, http.MethodGet, "/api/users/"+adaID, sam, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResourceUpload(t *testing.T) {
	_, app := newTestServer(t)
	ada := login(t, app, adaEmail)
	sam := login(t, app, samEmail)

	body := fiber.Map{
		"title":      "Recursion notes",
		"subject_id": adaPythonBeg,
		"file_name":  "recursion.pdf",
		"file_type":  "application/pdf",
		"size":       2048,
	}
	resp := doJSON(t, app, http.MethodPost, "/api/resources", ada, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var r map[string]any
	decode(t, resp, &r)
	assert.Contains(t, r["file_url"], "/recursion.pdf")

	resp = doJSON(t, app, http.MethodPost, "/api/resources", sam, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body["file_type"] = "application/x-msdownload"
	resp = doJSON(t, app, http.MethodPost, "/api/resources", ada, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMessaging(t *testing.T) {
	_, app := newTestServer(t)
	ada := login(t, app, adaEmail)
	sam := login(t, app, samEmail)

	resp := doJSON(t, app, http.MethodPost, "/api/messages/"+adaID, sam, fiber.Map{"text": "Can we cover loops?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/messages/"+samID, sam, fiber.Map{"text": "me"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/messages/contacts", ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contacts []struct {
		ID     string `json:"id"`
		Unread int    `json:"unread"`
	}
	decode(t, resp, &contacts)
	unread := map[string]int{}
	for _, c := range contacts {
		unread[c.ID] = c.Unread
	}
	assert.Equal(t, 1, unread[samID])
	assert.NotContains(t, unread, "tutor-isaac")

	resp = doJSON(t, app, http.MethodGet, "/api/messages/"+samID, ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conv []map[string]any
	decode(t, resp, &conv)
	assert.Len(t, conv, 1)

	resp = doJSON(t, app, http.MethodPost, "/api/messages/"+samID+"/read", ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var marked struct {
		Marked int `json:"marked"`
	}
	decode(t, resp, &marked)
	assert.Equal(t, 1, marked.Marked)

	resp = doJSON(t, app, http.MethodGet, "/api/messages/nobody", ada, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSTicket_SingleUse(t *testing.T) {
	_, app := newTestServer(t)
	sam := login(t, app, samEmail)

	resp := doJSON(t, app, http.MethodPost, "/api/ws/ticket", sam, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Ticket string `json:"ticket"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Ticket)

	// Authenticated but not an upgrade request.
	resp = doJSON(t, app, http.MethodGet, "/api/ws?ticket="+out.Ticket, "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/ws?ticket="+out.Ticket, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/ws?token="+sam, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
