package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

func TestGetChatDetachedFromLaterMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSupportChat(ctx, "visitor-1")
	require.NoError(t, err)

	before, err := svc.GetChat(ctx, id)
	require.NoError(t, err)
	require.Empty(t, before.AssignedTo)
	parts := len(before.Participants)

	require.NoError(t, svc.AssignChat(ctx, id, "agent-1"))

	assert.Empty(t, before.AssignedTo, "earlier read must not see the assignment")
	assert.Len(t, before.Participants, parts)

	after, err := svc.GetChat(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", after.AssignedTo)
}

func TestMessagesDetachedFromStatusAdvance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateChat(ctx, "userA", "userB")
	require.NoError(t, err)

	sent, err := svc.SendMessage(ctx, id, "hello", models.Identity{UID: "userA"}, nil)
	require.NoError(t, err)
	listed := svc.Messages(ctx, id)
	require.Len(t, listed, 1)

	require.NoError(t, svc.MarkRead(ctx, sent.ID))

	assert.Equal(t, models.StatusSent, sent.Status, "returned message must not track later acks")
	assert.Equal(t, models.StatusSent, listed[0].Status, "earlier listing must not track later acks")
	assert.Equal(t, models.StatusRead, svc.Messages(ctx, id)[0].Status)
}

func TestSubscribersReceiveDetachedSnapshots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSupportChat(ctx, "visitor-1")
	require.NoError(t, err)

	var seen []*models.Chat
	cancel := svc.SubscribeChats(SupportPool, func(chats []*models.Chat) {
		if seen == nil {
			seen = chats
		}
	})
	defer cancel()
	require.Len(t, seen, 1)

	require.NoError(t, svc.AssignChat(ctx, id, "agent-1"))
	assert.Empty(t, seen[0].AssignedTo, "first delivery must not mutate under the subscriber")
}

// Readers marshal results outside the engine lock while writers keep
// mutating; the copies they hold have to stay stable throughout.
func TestReadsMarshalSafelyDuringMutation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSupportChat(ctx, "visitor-1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			c, err := svc.GetChat(ctx, id)
			assert.NoError(t, err)
			_, err = json.Marshal(c)
			assert.NoError(t, err)
			_, err = json.Marshal(svc.Messages(ctx, id))
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.AssignChat(ctx, id, "agent-1"))
		m, err := svc.SendMessage(ctx, id, "ping", models.Identity{UID: "agent-1"}, nil)
		require.NoError(t, err)
		require.NoError(t, svc.MarkRead(ctx, m.ID))
	}
	<-done
}
