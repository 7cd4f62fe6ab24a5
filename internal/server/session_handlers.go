package server

import (
	"time"

	"peertutor/internal/models"
	"peertutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard handles GET /api/dashboard
// @Summary Session dashboard
// @Description Upcoming sessions, and for tutors the requests awaiting an answer
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Dashboard
// @Router /dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	d, err := s.bookingService.Dashboard(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(d)
}

// QuoteSession handles POST /api/sessions/quote
// @Summary Price a prospective booking
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{tutor_id=string,subject_id=string,duration=int} true "Booking details"
// @Success 200 {object} service.Quote
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/quote [post]
func (s *Server) QuoteSession(c *fiber.Ctx) error {
	var req struct {
		TutorID   string `json:"tutor_id"`
		SubjectID string `json:"subject_id"`
		Duration  int    `json:"duration"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	q, err := s.bookingService.Quote(req.TutorID, req.SubjectID, req.Duration)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(q)
}

// BookSession handles POST /api/sessions
// @Summary Request a session
// @Description Tutees book a tutor slot; the session starts as requested
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{tutor_id=string,subject_id=string,date_time=string,duration=int,mode=string,notes=string} true "Booking"
// @Success 201 {object} models.TutorSession
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions [post]
func (s *Server) BookSession(c *fiber.Ctx) error {
	var req struct {
		TutorID   string             `json:"tutor_id"`
		SubjectID string             `json:"subject_id"`
		DateTime  time.Time          `json:"date_time"`
		Duration  int                `json:"duration"`
		Mode      models.SessionMode `json:"mode"`
		Notes     string             `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ts, err := s.bookingService.Book(c.UserContext(), service.BookInput{
		TuteeID:   currentUserID(c),
		TutorID:   req.TutorID,
		SubjectID: req.SubjectID,
		DateTime:  req.DateTime,
		Duration:  req.Duration,
		Mode:      req.Mode,
		Notes:     req.Notes,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ts)
}

// GetMySessions handles GET /api/sessions
// @Summary Own sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.TutorSession
// @Router /sessions [get]
func (s *Server) GetMySessions(c *fiber.Ctx) error {
	sessions, err := s.bookingService.ListSessions(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(sessions)
}

// GetSession handles GET /api/sessions/:id
// @Summary Session detail
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.TutorSession
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/{id} [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	ts, err := s.bookingService.GetSession(currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ts)
}

// AcceptSession handles POST /api/sessions/:id/accept
// @Summary Accept a session request
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.TutorSession
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sessions/{id}/accept [post]
func (s *Server) AcceptSession(c *fiber.Ctx) error {
	return s.respondToSession(c, true)
}

// DeclineSession handles POST /api/sessions/:id/decline
// @Summary Decline a session request
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.TutorSession
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sessions/{id}/decline [post]
func (s *Server) DeclineSession(c *fiber.Ctx) error {
	return s.respondToSession(c, false)
}

func (s *Server) respondToSession(c *fiber.Ctx, accept bool) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	ts, err := s.bookingService.Respond(c.UserContext(), currentUserID(c), id, accept)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ts)
}

// GetSessionFeedback handles GET /api/sessions/:id/feedback
// @Summary Feedback left on a session
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} models.Feedback
// @Failure 403 {object} models.ErrorResponse
// @Router /sessions/{id}/feedback [get]
func (s *Server) GetSessionFeedback(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	feedback, err := s.feedbackService.ForSession(currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feedback)
}

// SubmitFeedback handles POST /api/sessions/:id/feedback
// @Summary Rate the other participant
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body object{rating=int,comment=string} true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sessions/{id}/feedback [post]
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	f, err := s.feedbackService.Submit(c.UserContext(), service.FeedbackInput{
		SessionID: id,
		FromID:    currentUserID(c),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}
