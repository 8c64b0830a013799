package bus

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		return evt
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	defer b.Close()

	first := b.Subscribe(4)
	second := b.Subscribe(4)

	b.Publish(Event{Type: TypeDeviceUpdate, DeviceID: "PUMP-001", Status: "OK"})

	for _, ch := range []chan Event{first, second} {
		evt := recvEvent(t, ch)
		if evt.Type != TypeDeviceUpdate || evt.DeviceID != "PUMP-001" {
			t.Fatalf("unexpected event %+v", evt)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()

	ch := b.Subscribe(4)
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected the channel to be closed without events")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for close")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	defer b.Close()

	ch := b.Subscribe(1)
	b.Publish(Event{Type: TypeSensorReading, DeviceID: "A"})
	// Give the run loop time to fill the single-slot buffer.
	evt := recvEvent(t, ch)
	if evt.DeviceID != "A" {
		t.Fatalf("unexpected event %+v", evt)
	}

	// These may race with each other in the buffer but must never block
	// the publisher.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: TypeSensorReading, DeviceID: "B"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	b := New()
	ch := b.Subscribe(4)
	b.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				// Publishing after close must not panic.
				b.Publish(Event{Type: TypeDeviceUpdate})
				if late := b.Subscribe(1); late != nil {
					if _, ok := <-late; ok {
						t.Fatalf("expected a closed channel from a late subscribe")
					}
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for shutdown")
		}
	}
}
