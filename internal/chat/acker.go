package chat

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Acker simulates transport acknowledgments with fixed delays, the
// demo-mode stand-in for a real delivery layer. Each tracked message
// moves to delivered after deliverAfter and to read after readAfter
// (both measured from send). Tracking lifecycles are independent of
// subscriptions: canceling a subscription never cancels a timer here.
type Acker struct {
	svc          *Service
	clock        clockwork.Clock
	deliverAfter time.Duration
	readAfter    time.Duration

	stop chan struct{}
}

func NewAcker(svc *Service, clock clockwork.Clock, deliverAfter, readAfter time.Duration) *Acker {
	if readAfter < deliverAfter {
		readAfter = deliverAfter
	}
	return &Acker{
		svc:          svc,
		clock:        clock,
		deliverAfter: deliverAfter,
		readAfter:    readAfter,
		stop:         make(chan struct{}),
	}
}

// Track schedules the two status advances for a message. Errors are
// dropped: the message may legitimately have been advanced already by
// a real acknowledgment.
func (a *Acker) Track(msgID string) {
	go func() {
		select {
		case <-a.clock.After(a.deliverAfter):
		case <-a.stop:
			return
		}
		_ = a.svc.MarkDelivered(context.Background(), msgID)

		select {
		case <-a.clock.After(a.readAfter - a.deliverAfter):
		case <-a.stop:
			return
		}
		_ = a.svc.MarkRead(context.Background(), msgID)
	}()
}

// Close stops all pending timers. In-flight advances that already
// fired are not rolled back.
func (a *Acker) Close() { close(a.stop) }
