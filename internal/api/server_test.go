package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/auth"
	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/events"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
	"github.com/yourorg/helpdesk/chat-service/internal/store"
	"github.com/yourorg/helpdesk/chat-service/internal/ws"
)

type testEnv struct {
	app *fiber.App
	svc *chat.Service
	val *auth.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "chat.json"), zerolog.Nop())
	require.NoError(t, err)

	svc := chat.NewService(st, events.Nop{}, nopUploader{}, clockwork.NewRealClock(), zerolog.Nop())
	hub := ws.NewHub(svc, nil, zerolog.Nop())
	val := auth.NewValidator("test-secret")
	app := NewServer(svc, hub, val, zerolog.Nop(), Options{})

	return &testEnv{app: app, svc: svc, val: val}
}

type nopUploader struct{}

func (nopUploader) Upload(_ context.Context, f attach.File) (models.Attachment, error) {
	return models.Attachment{Name: f.Name, URL: "blob://" + f.Name, Type: f.ContentType, Size: f.Size}, nil
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) token(t *testing.T, who models.Identity) string {
	t.Helper()
	token, err := e.val.Sign(who, time.Hour)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	resp := env.request(t, http.MethodGet, "/v1/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndListChats(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1", Email: "john@example.com"})

	resp := env.request(t, http.MethodPost, "/v1/chats", token, map[string]string{"other_user_id": "user2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ChatID string `json:"chat_id"`
	}
	decode(t, resp, &created)
	require.NotEmpty(t, created.ChatID)

	resp = env.request(t, http.MethodGet, "/v1/chats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Chats []*models.Chat `json:"chats"`
	}
	decode(t, resp, &listed)
	require.Len(t, listed.Chats, 1)
	assert.Equal(t, created.ChatID, listed.Chats[0].ID)
}

func TestGetChatNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1"})

	resp := env.request(t, http.MethodGet, "/v1/chats/chat-unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1", Email: "john@example.com"})

	resp := env.request(t, http.MethodPost, "/v1/chats", token, map[string]string{"other_user_id": "user2"})
	var created struct {
		ChatID string `json:"chat_id"`
	}
	decode(t, resp, &created)

	resp = env.request(t, http.MethodPost, "/v1/chats/"+created.ChatID+"/messages", token, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg models.Message
	decode(t, resp, &msg)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, models.StatusSent, msg.Status)

	resp = env.request(t, http.MethodGet, "/v1/chats/"+created.ChatID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Messages []*models.Message `json:"messages"`
	}
	decode(t, resp, &listed)
	require.Len(t, listed.Messages, 1)
}

func TestSendEmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1"})

	resp := env.request(t, http.MethodPost, "/v1/chats", token, map[string]string{"other_user_id": "user2"})
	var created struct {
		ChatID string `json:"chat_id"`
	}
	decode(t, resp, &created)

	resp = env.request(t, http.MethodPost, "/v1/chats/"+created.ChatID+"/messages", token, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarkReadEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1"})

	resp := env.request(t, http.MethodPost, "/v1/chats", token, map[string]string{"other_user_id": "user2"})
	var created struct {
		ChatID string `json:"chat_id"`
	}
	decode(t, resp, &created)

	resp = env.request(t, http.MethodPost, "/v1/chats/"+created.ChatID+"/messages", token, map[string]string{"text": "hello"})
	var msg models.Message
	decode(t, resp, &msg)

	resp = env.request(t, http.MethodPost, "/v1/messages/"+msg.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusRead, env.svc.Messages(context.Background(), created.ChatID)[0].Status)
}

func TestWidgetSessionAndAssignFlow(t *testing.T) {
	env := newTestEnv(t)

	// visitor opens a support chat, no auth needed
	resp := env.request(t, http.MethodPost, "/widget/session", "", map[string]string{"visitor_id": "v1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		VisitorID string `json:"visitor_id"`
		ChatID    string `json:"chat_id"`
	}
	decode(t, resp, &session)
	assert.Equal(t, "v1", session.VisitorID)
	require.NotEmpty(t, session.ChatID)

	// the chat shows up in the agent-facing pending queue
	agent := env.token(t, models.Identity{UID: "agent1", Email: "agent@helpdesk.com"})
	resp = env.request(t, http.MethodGet, "/v1/chats/pending", agent, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending struct {
		Chats []*models.Chat `json:"chats"`
	}
	decode(t, resp, &pending)
	require.Len(t, pending.Chats, 1)

	// agent claims it
	resp = env.request(t, http.MethodPost, "/v1/chats/"+session.ChatID+"/assign", agent, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/v1/chats/"+session.ChatID, agent, nil)
	var c models.Chat
	decode(t, resp, &c)
	assert.Equal(t, "agent1", c.AssignedTo)

	resp = env.request(t, http.MethodGet, "/v1/chats/pending", agent, nil)
	decode(t, resp, &pending)
	assert.Empty(t, pending.Chats)
}

func TestWidgetSessionGeneratesVisitorID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/widget/session", "", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		VisitorID string `json:"visitor_id"`
		ChatID    string `json:"chat_id"`
	}
	decode(t, resp, &session)
	assert.NotEmpty(t, session.VisitorID)
	assert.NotEmpty(t, session.ChatID)
}

func TestListContacts(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, models.Identity{UID: "user1"})

	resp := env.request(t, http.MethodGet, "/v1/contacts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Contacts []models.Contact `json:"contacts"`
	}
	decode(t, resp, &listed)
	assert.NotEmpty(t, listed.Contacts)
}
