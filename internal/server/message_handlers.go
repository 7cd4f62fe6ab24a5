package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetContacts handles GET /api/messages/contacts
// @Summary Chat contacts
// @Description Users of the opposite role with unread counts and online presence
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.Contact
// @Router /messages/contacts [get]
func (s *Server) GetContacts(c *fiber.Ctx) error {
	contacts, err := s.profileService.Contacts(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(contacts)
}

// GetConversation handles GET /api/messages/:userId
// @Summary Conversation with a user
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Other user ID"
// @Success 200 {array} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{userId} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	other, ok := pathParam(c, "userId")
	if !ok {
		return nil
	}
	msgs, err := s.messageService.Conversation(currentUserID(c), other)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// SendMessage handles POST /api/messages/:userId
// @Summary Send a chat message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Recipient ID"
// @Param request body object{text=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{userId} [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	other, ok := pathParam(c, "userId")
	if !ok {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	msg, err := s.messageService.Send(c.UserContext(), currentUserID(c), other, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkConversationRead handles POST /api/messages/:userId/read
// @Summary Mark messages from a user as read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Other user ID"
// @Success 200 {object} object{marked=int}
// @Router /messages/{userId}/read [post]
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	other, ok := pathParam(c, "userId")
	if !ok {
		return nil
	}
	n, err := s.messageService.MarkRead(currentUserID(c), other)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"marked": n})
}
