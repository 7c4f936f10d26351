package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

func TestHubPublishReachesEveryOperator(t *testing.T) {
	hub, _ := startHub(t)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	waitOnline(t, hub, 2)

	hub.Publish(Message{SessionID: "visitor_1", Direction: store.DirectionVisitor, Text: "hello"})

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventVisitorMessage)
		if ev.Message.SessionID != "visitor_1" || ev.Message.Text != "hello" {
			t.Fatalf("unexpected event for %s: %+v", c.Name, ev.Message)
		}
	}
}

func TestHubReplyIsPersistedAndBroadcast(t *testing.T) {
	hub, st := startHub(t)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	waitOnline(t, hub, 2)

	alice.Commands <- &Command{
		Kind:    CommandReply,
		Message: Message{SessionID: "visitor_1", Text: " on my way "},
	}

	// Bob sees the reply, trimmed and attributed to Alice.
	ev := mustEvent(t, bob.Events, EventReplyQueued)
	if ev.Message.Text != "on my way" || ev.Message.From != "alice" || ev.Message.ID == 0 {
		t.Fatalf("unexpected reply event: %+v", ev.Message)
	}

	replies, err := st.TakeReplies(context.Background(), "visitor_1")
	if err != nil {
		t.Fatalf("take replies: %v", err)
	}
	if len(replies) != 1 || replies[0].Body != "on my way" {
		t.Fatalf("unexpected queued replies: %+v", replies)
	}
}

func TestHubEmptyReplyProducesError(t *testing.T) {
	hub, st := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	waitOnline(t, hub, 1)

	alice.Commands <- &Command{Kind: CommandReply, Message: Message{SessionID: "visitor_1", Text: "   "}}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request error, got %+v", ev.Error)
	}

	msgs, err := st.ListMessages(context.Background(), "visitor_1", 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected nothing stored, got %d messages", len(msgs))
	}
}

func TestHubReplyWithoutSessionProducesError(t *testing.T) {
	hub, _ := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	waitOnline(t, hub, 1)

	alice.Commands <- &Command{Kind: CommandReply, Message: Message{Text: "hi"}}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBadRequest || ev.Error.Message != ErrMissingSession.Error() {
		t.Fatalf("expected missing session error, got %+v", ev.Error)
	}
}

func TestHubWithoutStoreReportsInternalError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil, nil) // No store: every reply fails.
	go hub.Run(ctx)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandReply, Message: Message{SessionID: "visitor_1", Text: "hi"}}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInternal {
		t.Fatalf("expected internal error, got %+v", ev.Error)
	}
}

func TestHubUnregisterClosesEvents(t *testing.T) {
	hub, _ := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	waitOnline(t, hub, 1)

	hub.UnregisterClient(alice)
	waitOnline(t, hub, 0)

	if _, ok := <-alice.Events; ok {
		t.Fatal("expected Events to be closed")
	}
}

func TestHubStopReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	waitOnline(t, hub, 1)

	cancel()
	<-stopped

	if _, ok := <-alice.Events; ok {
		t.Fatal("expected Events to be closed")
	}
	if n := hub.OnlineOperators(); n != 0 {
		t.Fatalf("expected no operators online, got %d", n)
	}

	// Calls after the hub stopped must not block.
	hub.UnregisterClient(alice)
	hub.Publish(Message{SessionID: "visitor_1", Text: "late"})
}

func TestSlowOperatorIsSkipped(t *testing.T) {
	hub, _ := startHub(t)

	slow := NewClient("s", "slow")
	hub.RegisterClient(slow)
	waitOnline(t, hub, 1)

	for i := 0; i < cap(slow.Events)+4; i++ {
		hub.Publish(Message{SessionID: "visitor_1", Text: "ping"})
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(slow.Events) != cap(slow.Events) {
		if time.Now().After(deadline) {
			t.Fatalf("slow queue never filled: %d/%d", len(slow.Events), cap(slow.Events))
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The hub keeps serving others while one queue is full.
	fast := NewClient("f", "fast")
	hub.RegisterClient(fast)
	waitOnline(t, hub, 2)
	hub.Publish(Message{SessionID: "visitor_1", Text: "marker"})

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-fast.Events:
			if ev.Message.Text == "marker" {
				if len(slow.Events) != cap(slow.Events) {
					t.Fatalf("slow queue changed: %d/%d", len(slow.Events), cap(slow.Events))
				}
				return
			}
		case <-timeout:
			t.Fatal("marker not delivered")
		}
	}
}
