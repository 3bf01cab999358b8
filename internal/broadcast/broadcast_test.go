package broadcast

import (
	"testing"
	"time"
)

func TestSubscribeReceiveInOrder(t *testing.T) {
	b := New(4)
	defer b.Close()

	r := b.Subscribe()
	defer r.Unsubscribe()

	if n := b.SubscriberCount(); n != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", n)
	}

	want := []string{"a", "b", "c"}
	for _, s := range want {
		b.Send(Chunk(s))
	}

	for _, s := range want {
		ev := r.Receive()
		if ev.Lagged != 0 || ev.Closed {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if string(ev.Chunk) != s {
			t.Errorf("Receive() = %q, want %q", ev.Chunk, s)
		}
	}
}

func TestSendWithZeroSubscribersIsANoop(t *testing.T) {
	b := New(4)
	defer b.Close()

	n := b.Send(Chunk("x"))
	if n != 0 {
		t.Errorf("Send() returned %d subscribers, want 0", n)
	}
}

func TestLagReportedOnceThenDrains(t *testing.T) {
	b := New(4)
	defer b.Close()

	r := b.Subscribe()
	defer r.Unsubscribe()

	// Fill the backlog (4) and overflow by 2 without ever receiving.
	for i := 0; i < 6; i++ {
		b.Send(Chunk{byte(i)})
	}

	ev := r.Receive()
	if ev.Lagged < 1 {
		t.Fatalf("expected a Lagged event, got %+v", ev)
	}

	// The 4 buffered chunks should now drain in FIFO order.
	for i := 0; i < 4; i++ {
		ev := r.Receive()
		if ev.Lagged != 0 || ev.Closed {
			t.Fatalf("expected a chunk after lag, got %+v", ev)
		}
	}
}

func TestCloseUnblocksReceivers(t *testing.T) {
	b := New(4)
	r := b.Subscribe()

	done := make(chan Event, 1)
	go func() { done <- r.Receive() }()

	b.Close()

	select {
	case ev := <-done:
		if !ev.Closed {
			t.Errorf("expected Closed event, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock within 2s of Close")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(4)
	defer b.Close()

	r := b.Subscribe()
	r.Unsubscribe()
	r.Unsubscribe()

	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}
