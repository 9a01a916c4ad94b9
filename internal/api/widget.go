package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

type widgetSessionReq struct {
	VisitorID string `json:"visitor_id"`
}

// widgetSession opens (or resumes) a visitor's support chat. Visitors
// are anonymous: a missing visitor_id gets a fresh one the widget
// stores client-side.
func (s *Server) widgetSession(c *fiber.Ctx) error {
	var req widgetSessionReq
	_ = c.BodyParser(&req)
	if req.VisitorID == "" {
		req.VisitorID = "visitor-" + uuid.NewString()
	}

	chatID, err := s.svc.CreateSupportChat(c.Context(), req.VisitorID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"visitor_id": req.VisitorID, "chat_id": chatID})
}

func (s *Server) widgetWS(conn *websocket.Conn) {
	visitorID := conn.Query("visitor_id")
	if visitorID == "" {
		_ = conn.Close()
		return
	}
	s.hub.Handle(conn, models.Identity{UID: visitorID, Name: "Visitor"})
}
