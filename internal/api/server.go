package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/yourorg/helpdesk/chat-service/internal/auth"
	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
	"github.com/yourorg/helpdesk/chat-service/internal/ws"
)

// Server is the UI-facing surface: the authenticated /v1 API for the
// helpdesk app and the unauthenticated /widget endpoints for the
// embeddable visitor widget.
type Server struct {
	svc *chat.Service
	hub *ws.Hub
	log zerolog.Logger
}

// Options carries optional routes: a blob dir to serve local
// attachments from, empty when S3 is in use.
type Options struct {
	BlobDir string
}

func NewServer(svc *chat.Service, hub *ws.Hub, v *auth.Validator, log zerolog.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s := &Server{svc: svc, hub: hub, log: log}

	app.Use(Recovery(log))
	app.Use(RequestLogger(log))

	if opts.BlobDir != "" {
		app.Static("/blobs", opts.BlobDir)
	}

	widget := app.Group("/widget")
	widget.Post("/session", s.widgetSession)
	widget.Get("/ws", websocket.New(s.widgetWS))

	api := app.Group("/v1")
	api.Use(JWTAuth(v))

	api.Get("/contacts", s.listContacts)
	api.Post("/chats", s.createChat)
	api.Get("/chats", s.listChats)
	api.Get("/chats/pending", s.pendingChats)
	api.Get("/chats/:chat_id", s.getChat)
	api.Post("/chats/:chat_id/assign", s.assignChat)
	api.Post("/chats/:chat_id/close", s.closeChat)
	api.Post("/chats/:chat_id/messages", s.sendMessage)
	api.Get("/chats/:chat_id/messages", s.listMessages)
	api.Post("/messages/:msg_id/read", s.markRead)
	api.Get("/ws", websocket.New(s.userWS))

	return app
}

func (s *Server) userWS(conn *websocket.Conn) {
	who, ok := conn.Locals(identityKey).(models.Identity)
	if !ok {
		_ = conn.Close()
		return
	}
	s.hub.Handle(conn, who)
}
