package server

import (
	"peertutor/internal/models"
	"peertutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSubjects handles GET /api/subjects
// @Summary Subject catalog
// @Tags tutors
// @Produce json
// @Success 200 {array} models.Subject
// @Router /subjects [get]
func (s *Server) GetSubjects(c *fiber.Ctx) error {
	return c.JSON(s.profileService.Subjects())
}

// GetTutors handles GET /api/tutors
// @Summary List tutors
// @Tags tutors
// @Produce json
// @Success 200 {array} models.TutorProfile
// @Router /tutors [get]
func (s *Server) GetTutors(c *fiber.Ctx) error {
	return c.JSON(s.profileService.ListTutors())
}

// GetTutor handles GET /api/tutors/:id
// @Summary Tutor profile
// @Tags tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} models.TutorProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /tutors/{id} [get]
func (s *Server) GetTutor(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	tutor, err := s.profileService.GetTutor(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tutor)
}

// GetTutorSubjects handles GET /api/tutors/:id/subjects
// @Summary Subjects a tutor offers
// @Tags tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {array} models.Subject
// @Failure 404 {object} models.ErrorResponse
// @Router /tutors/{id}/subjects [get]
func (s *Server) GetTutorSubjects(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	subjects, err := s.profileService.TutorSubjects(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(subjects)
}

// GetTutorResources handles GET /api/tutors/:id/resources
// @Summary Resources uploaded by a tutor
// @Tags tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {array} models.Resource
// @Router /tutors/{id}/resources [get]
func (s *Server) GetTutorResources(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	resources, err := s.profileService.TutorResources(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resources)
}

// GetTutorFeedback handles GET /api/tutors/:id/feedback
// @Summary Feedback left for a tutor
// @Tags tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {array} models.Feedback
// @Router /tutors/{id}/feedback [get]
func (s *Server) GetTutorFeedback(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	feedback, err := s.profileService.TutorFeedback(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feedback)
}

// GetTutorSlots handles GET /api/tutors/:id/slots
// @Summary Bookable one-hour slots
// @Description Slots generated from the tutor's availability for the weekday of date
// @Tags tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} service.Slot
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tutors/{id}/slots [get]
func (s *Server) GetTutorSlots(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	date, err := parseDate(c, "date")
	if err != nil {
		return respondServiceError(c, err)
	}
	slots, err := s.bookingService.Slots(id, date)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(slots)
}

// GetUser handles GET /api/users/:id
// @Summary Public user view
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, ok := pathParam(c, "id")
	if !ok {
		return nil
	}
	user, err := s.profileService.GetUser(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
// @Summary Own profile
// @Description Returns the full tutor or tutee profile of the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Description Shallow update. Omitted fields are left unchanged.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,bio=string,profile_picture=string,qualifications=[]string,hourly_rate=number,modes=[]string,learning_preferences=[]string,interest_ids=[]string} true "Profile fields"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name                *string               `json:"name"`
		Bio                 *string               `json:"bio"`
		ProfilePicture      *string               `json:"profile_picture"`
		Qualifications      *[]string             `json:"qualifications"`
		HourlyRate          *float64              `json:"hourly_rate"`
		Modes               *[]models.SessionMode `json:"modes"`
		LearningPreferences *[]string             `json:"learning_preferences"`
		InterestIDs         *[]string             `json:"interest_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:              currentUserID(c),
		Name:                req.Name,
		Bio:                 req.Bio,
		ProfilePicture:      req.ProfilePicture,
		Qualifications:      req.Qualifications,
		HourlyRate:          req.HourlyRate,
		Modes:               req.Modes,
		LearningPreferences: req.LearningPreferences,
		InterestIDs:         req.InterestIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// SetMyAvailability handles PUT /api/users/me/availability
// @Summary Replace tutor availability
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{availability=[]models.Availability} true "Weekly windows"
// @Success 200 {object} models.TutorProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/me/availability [put]
func (s *Server) SetMyAvailability(c *fiber.Ctx) error {
	var req struct {
		Availability []models.Availability `json:"availability"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	tutor, err := s.profileService.SetAvailability(c.UserContext(), currentUserID(c), req.Availability)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tutor)
}

// AddMySubject handles POST /api/users/me/subjects
// @Summary Offer a new subject
// @Description Adds the subject to the catalog and to the tutor's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,level=string,hourly_rate=number,description=string} true "Subject"
// @Success 201 {object} models.Subject
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/me/subjects [post]
func (s *Server) AddMySubject(c *fiber.Ctx) error {
	var req struct {
		Name        string  `json:"name"`
		Level       string  `json:"level"`
		HourlyRate  float64 `json:"hourly_rate"`
		Description string  `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	sub, err := s.profileService.AddSubject(c.UserContext(), currentUserID(c), service.SubjectInput{
		Name:        req.Name,
		Level:       req.Level,
		HourlyRate:  req.HourlyRate,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}
