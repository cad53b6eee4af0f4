package workflow

import (
	"testing"
	"time"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(StatusEvent{SessionID: "s1", FromStep: "intent", ToStep: "ssb_pending"})

	select {
	case ev := <-ch:
		if ev.SessionID != "s1" || ev.ToStep != "ssb_pending" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestHubPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	defer cancel()

	// Nobody reads the subscription. Events beyond the buffer must be
	// dropped rather than stall the publisher.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(StatusEvent{SessionID: "s1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()

	cancel()
	cancel() // second call must not panic on the closed channel

	hub.Publish(StatusEvent{SessionID: "s1"})
}
