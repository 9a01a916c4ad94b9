package api

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

func identityFrom(c *fiber.Ctx) models.Identity {
	who, _ := c.Locals(identityKey).(models.Identity)
	return who
}

// httpError maps the engine's sentinel errors onto status codes.
func httpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrChatNotFound), errors.Is(err, models.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrClosedChat):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

type createChatReq struct {
	OtherUserID string `json:"other_user_id"`
}

func (s *Server) createChat(c *fiber.Ctx) error {
	var req createChatReq
	if err := c.BodyParser(&req); err != nil || req.OtherUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "other_user_id required"})
	}

	who := identityFrom(c)
	chatID, err := s.svc.CreateChat(c.Context(), who.UID, req.OtherUserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"chat_id": chatID})
}

func (s *Server) listChats(c *fiber.Ctx) error {
	who := identityFrom(c)
	chats := s.svc.ListChats(c.Context(), who.UID)
	return c.JSON(fiber.Map{"chats": chats})
}

func (s *Server) pendingChats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"chats": s.svc.PendingChats(c.Context())})
}

func (s *Server) getChat(c *fiber.Ctx) error {
	cht, err := s.svc.GetChat(c.Context(), c.Params("chat_id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(cht)
}

func (s *Server) assignChat(c *fiber.Ctx) error {
	who := identityFrom(c)
	if err := s.svc.AssignChat(c.Context(), c.Params("chat_id"), who.UID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"status": "assigned"})
}

func (s *Server) closeChat(c *fiber.Ctx) error {
	if err := s.svc.CloseChat(c.Context(), c.Params("chat_id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"status": "closed"})
}

// sendMessage accepts either a JSON body {"text": ...} or a multipart
// form with a text field plus file parts.
func (s *Server) sendMessage(c *fiber.Ctx) error {
	who := identityFrom(c)
	// The service retains this string as Message.ChatID; fiber reuses
	// the buffer backing Params after the handler returns.
	chatID := utils.CopyString(c.Params("chat_id"))

	var text string
	var files []attach.File

	if form, err := c.MultipartForm(); err == nil {
		if vals := form.Value["text"]; len(vals) > 0 {
			text = vals[0]
		}
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return httpError(c, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return httpError(c, err)
			}
			files = append(files, attach.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Data:        data,
			})
		}
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
		text = req.Text
	}

	msg, err := s.svc.SendMessage(c.Context(), chatID, text, who, files)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(msg)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	chatID := c.Params("chat_id")
	if _, err := s.svc.GetChat(c.Context(), chatID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"messages": s.svc.Messages(c.Context(), chatID)})
}

func (s *Server) markRead(c *fiber.Ctx) error {
	if err := s.svc.MarkRead(c.Context(), c.Params("msg_id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) listContacts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"contacts": chat.Contacts()})
}
