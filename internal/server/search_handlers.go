package server

import (
	"strings"

	"peertutor/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchTutors handles GET /api/search
// @Summary Natural-language tutor search
// @Description Parse free text like "python tutor monday evening" and return matching tutors
// @Tags search
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} service.SearchResult
// @Router /search [get]
func (s *Server) SearchTutors(c *fiber.Ctx) error {
	userID, _ := s.optionalUserID(c)
	return c.JSON(s.searchService.Search(c.UserContext(), c.Query("q"), userID))
}

// ParseQuery handles POST /api/search/parse
// @Summary Parse search text
// @Tags search
// @Accept json
// @Produce json
// @Param request body object{text=string} true "Search text"
// @Success 200 {object} models.SearchQuery
// @Failure 400 {object} models.ErrorResponse
// @Router /search/parse [post]
func (s *Server) ParseQuery(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	return c.JSON(s.searchService.Parse(req.Text))
}

// GetTimePeriods handles GET /api/search/time-periods
// @Summary Time-of-day periods understood by the parser
// @Tags search
// @Produce json
// @Success 200 {array} search.TimePeriod
// @Router /search/time-periods [get]
func (s *Server) GetTimePeriods(c *fiber.Ctx) error {
	return c.JSON(s.searchService.TimePeriods())
}

// CreateSearchHandoff handles POST /api/search/handoff
// @Summary Store a parsed search for another page
// @Tags search
// @Accept json
// @Produce json
// @Param request body object{text=string} true "Search text"
// @Success 201 {object} service.Handoff
// @Failure 400 {object} models.ErrorResponse
// @Router /search/handoff [post]
func (s *Server) CreateSearchHandoff(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.Text) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("text is required"))
	}

	h, err := s.searchService.CreateHandoff(c.UserContext(), req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h)
}

// ResolveSearchHandoff handles GET /api/search/handoff/:token
// @Summary Resume a stored search
// @Description Returns the stored query with fresh results. Expired tokens are 404.
// @Tags search
// @Produce json
// @Param token path string true "Handoff token"
// @Success 200 {object} service.SearchResult
// @Failure 404 {object} models.ErrorResponse
// @Router /search/handoff/{token} [get]
func (s *Server) ResolveSearchHandoff(c *fiber.Ctx) error {
	token, ok := pathParam(c, "token")
	if !ok {
		return nil
	}
	userID, _ := s.optionalUserID(c)
	result, err := s.searchService.ResolveHandoff(c.UserContext(), token, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// optionalUserID reads the caller from a Bearer token without requiring one.
func (s *Server) optionalUserID(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	claims, err := s.parseToken(parts[1])
	if err != nil {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}
