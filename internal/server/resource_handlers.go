package server

import (
	"strings"

	"peertutor/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetResources handles GET /api/resources
// @Summary Browse study resources
// @Tags resources
// @Produce json
// @Param subject query string false "Subject ID or name"
// @Success 200 {array} models.Resource
// @Router /resources [get]
func (s *Server) GetResources(c *fiber.Ctx) error {
	return c.JSON(s.resourceService.List(c.Query("subject")))
}

// UploadResource handles POST /api/resources
// @Summary Upload a study resource
// @Description Multipart form with a "file" part, or JSON metadata. Only the metadata is kept.
// @Tags resources
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param subject_id formData string true "Subject ID"
// @Param file formData file false "Resource file"
// @Success 201 {object} models.Resource
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /resources [post]
func (s *Server) UploadResource(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
		SubjectID   string `json:"subject_id" form:"subject_id"`
		FileName    string `json:"file_name" form:"file_name"`
		FileType    string `json:"file_type" form:"file_type"`
		Size        int64  `json:"size" form:"size"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if file, err := c.FormFile("file"); err == nil {
			req.FileName = file.Filename
			req.FileType = file.Header.Get("Content-Type")
			req.Size = file.Size
		}
	}

	r, err := s.resourceService.Upload(c.UserContext(), service.UploadInput{
		TutorID:     currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   req.SubjectID,
		FileName:    req.FileName,
		FileType:    req.FileType,
		Size:        req.Size,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}
