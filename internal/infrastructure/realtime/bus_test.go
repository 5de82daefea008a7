package realtime

import (
	"sync"
	"testing"
)

func TestPublishReachesOnlySubscribedRooms(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Subscribe("conv-1")
	b := bus.Subscribe("conv-2")
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	if got := bus.Publish(NewEvent(EventConversationUpdated, "conv-1", nil)); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}

	select {
	case evt := <-a.Events():
		if evt.Type != EventConversationUpdated || evt.ConversationID != "conv-1" {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatal("subscriber a received nothing")
	}

	select {
	case evt := <-b.Events():
		t.Fatalf("subscriber b received %+v, want nothing", evt)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe("conv-1")
	bus.Unsubscribe(sub)

	if got := bus.Publish(NewEvent(EventMessageCreated, "conv-1", nil)); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
	select {
	case evt := <-sub.Events():
		t.Fatalf("received %+v after unsubscribe", evt)
	default:
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub := bus.Subscribe("conv-1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(NewEvent(EventMessageCreated, "conv-1", nil))
			}
		}()
		go func() {
			defer wg.Done()
			bus.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	if got := bus.Publish(NewEvent(EventMessageCreated, "conv-1", nil)); got != 0 {
		t.Fatalf("delivered = %d after all unsubscribed, want 0", got)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe("conv-1")
	for i := 0; i < subscriberBuffer; i++ {
		if got := bus.Publish(NewEvent(EventMessageCreated, "conv-1", nil)); got != 1 {
			t.Fatalf("delivery %d failed", i)
		}
	}

	// Buffer is full; the next publish drops the stalled subscriber instead of blocking.
	if got := bus.Publish(NewEvent(EventMessageCreated, "conv-1", nil)); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("stalled subscriber was not dropped")
	}
}

func TestLeaveRemovesRoomMembershipOnly(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe("conv-1", "conv-2")
	defer bus.Unsubscribe(sub)

	bus.Leave("conv-1", sub)

	if got := bus.Publish(NewEvent(EventConversationUpdated, "conv-1", nil)); got != 0 {
		t.Fatalf("conv-1 delivered = %d, want 0", got)
	}
	if got := bus.Publish(NewEvent(EventConversationUpdated, "conv-2", nil)); got != 1 {
		t.Fatalf("conv-2 delivered = %d, want 1", got)
	}
}
