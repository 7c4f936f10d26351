package core

import "testing"

func TestRoomMembership(t *testing.T) {
	room := NewRoom("operators")
	if room.Name != "operators" || !room.Empty() {
		t.Fatalf("unexpected new room: name=%q len=%d", room.Name, room.Len())
	}

	alice := NewClient("a", "alice")
	if !room.AddClient(alice) {
		t.Fatal("first add should report true")
	}
	if room.AddClient(alice) {
		t.Fatal("second add should report false")
	}
	if room.Empty() || room.Len() != 1 {
		t.Fatalf("expected one client, got %d", room.Len())
	}

	if !room.RemoveClient(alice) || room.RemoveClient(alice) {
		t.Fatal("remove should succeed once")
	}
	if !room.Empty() {
		t.Fatal("room should be empty after removal")
	}
}

func TestRoomBroadcastCountsDropped(t *testing.T) {
	room := NewRoom("operators")
	full := NewClient("f", "full")
	open := NewClient("o", "open")
	room.AddClient(full)
	room.AddClient(open)

	for range cap(full.Events) {
		full.Events <- &Event{Kind: EventVisitorMessage}
	}

	if dropped := room.Broadcast(&Event{Kind: EventVisitorMessage}); dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
	if len(open.Events) != 1 {
		t.Fatalf("expected event for open client, got %d", len(open.Events))
	}
}
