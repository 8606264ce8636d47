package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("sweep-completed")
	if v := <-ch; v != "sweep-completed" {
		t.Fatalf("expected sweep-completed got %v", v)
	}
	bus.Unsubscribe(ch)
	bus.Publish("dropped")
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestBusNonBlockingDelivery(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	// Overflow the subscriber buffer; the publisher must not block.
	for i := 0; i < 100; i++ {
		bus.Publish(i)
	}
	if v := <-ch; v != 0 {
		t.Fatalf("expected first event got %v", v)
	}
	bus.Close()
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	if ch := bus.Subscribe(); func() bool { _, ok := <-ch; return ok }() {
		t.Fatalf("subscribe after close must return a closed channel")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
