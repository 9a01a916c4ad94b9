package chat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
	"github.com/yourorg/helpdesk/chat-service/internal/store"
)

// mockPublisher records outbound events.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) ChatCreated(ctx context.Context, c *models.Chat) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockPublisher) ChatAssigned(ctx context.Context, c *models.Chat, agentID string) error {
	return m.Called(ctx, c, agentID).Error(0)
}

func (m *mockPublisher) MessageSent(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockPublisher) Close() error { return m.Called().Error(0) }

// fakeUploader materializes attachment records without touching disk.
type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, f attach.File) (models.Attachment, error) {
	return models.Attachment{
		Name: f.Name,
		URL:  "blob://" + f.Name,
		Type: f.ContentType,
		Size: f.Size,
	}, nil
}

func newTestService(t *testing.T) (*Service, *clockwork.FakeClock) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "chat.json"), zerolog.Nop())
	require.NoError(t, err)

	pub := &mockPublisher{}
	pub.On("ChatCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	pub.On("ChatAssigned", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	pub.On("MessageSent", mock.Anything, mock.Anything).Return(nil).Maybe()

	clock := clockwork.NewFakeClock()
	return NewService(st, pub, fakeUploader{}, clock, zerolog.Nop()), clock
}
