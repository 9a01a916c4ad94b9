package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

func TestAckerAdvancesStatuses(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	acker := NewAcker(svc, clock, time.Second, 3*time.Second)
	defer acker.Close()
	svc.SetAcker(acker)

	id, err := svc.CreateChat(ctx, "userA", "userB")
	require.NoError(t, err)
	m, err := svc.SendMessage(ctx, id, "hello", models.Identity{UID: "userA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, m.Status)

	status := func() models.MessageStatus {
		return svc.Messages(ctx, id)[0].Status
	}

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return status() == models.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return status() == models.StatusRead
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAckerIndependentOfSubscriptions(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	acker := NewAcker(svc, clock, time.Second, 3*time.Second)
	defer acker.Close()
	svc.SetAcker(acker)

	id, err := svc.CreateChat(ctx, "userA", "userB")
	require.NoError(t, err)

	cancel := svc.SubscribeMessages(id, func([]*models.Message) {})
	_, err = svc.SendMessage(ctx, id, "hello", models.Identity{UID: "userA"}, nil)
	require.NoError(t, err)

	// canceling the subscription must not cancel in-flight ack timers
	cancel()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return svc.Messages(ctx, id)[0].Status == models.StatusDelivered
	}, 2*time.Second, 10*time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return svc.Messages(ctx, id)[0].Status == models.StatusRead
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAckerSkipsAlreadyAcknowledged(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	acker := NewAcker(svc, clock, time.Second, 3*time.Second)
	defer acker.Close()
	svc.SetAcker(acker)

	id, err := svc.CreateChat(ctx, "userA", "userB")
	require.NoError(t, err)
	m, err := svc.SendMessage(ctx, id, "hello", models.Identity{UID: "userA"}, nil)
	require.NoError(t, err)

	// a real read receipt lands before the simulated one
	require.NoError(t, svc.MarkRead(ctx, m.ID))

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)

	assert.Equal(t, models.StatusRead, svc.Messages(ctx, id)[0].Status)
}
