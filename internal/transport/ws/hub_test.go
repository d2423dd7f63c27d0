package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubRoutesBroadcastsBySession(t *testing.T) {
	h := NewHub()
	go h.Run()

	watcherA := h.NewConnection(nil, "ses_a")
	watcherB := h.NewConnection(nil, "ses_b")
	h.Register(watcherA)
	h.Register(watcherB)

	h.Broadcast("ses_a", []byte(`{"type":"round_start"}`))

	select {
	case data := <-watcherA.Send:
		if string(data) != `{"type":"round_start"}` {
			t.Fatalf("unexpected payload: %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected broadcast to reach session observer")
	}

	select {
	case data := <-watcherB.Send:
		t.Fatalf("observer of another session received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()

	conn := h.NewConnection(nil, "ses_a")
	h.Register(conn)
	h.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}

	// A second unregister for the same connection is a no-op.
	h.Unregister(conn)
}

func TestHubCounts(t *testing.T) {
	h := NewHub()
	go h.Run()

	first := h.NewConnection(nil, "ses_a")
	second := h.NewConnection(nil, "ses_a")
	third := h.NewConnection(nil, "ses_b")
	for _, conn := range []*Connection{first, second, third} {
		h.Register(conn)
	}

	// The hub processes one channel op at a time, so receiving this
	// broadcast means all three registrations have been applied.
	h.Broadcast("ses_b", []byte("barrier"))
	select {
	case <-third.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("registration barrier did not complete")
	}

	if got := h.ConnectionCount(); got != 3 {
		t.Fatalf("ConnectionCount = %d, want 3", got)
	}
	if got := h.SessionCount(); got != 2 {
		t.Fatalf("SessionCount = %d, want 2", got)
	}

	h.Unregister(second)
	select {
	case <-second.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister did not complete")
	}

	if got := h.ConnectionCount(); got != 2 {
		t.Fatalf("ConnectionCount after unregister = %d, want 2", got)
	}
	if got := h.SessionCount(); got != 2 {
		t.Fatalf("SessionCount after unregister = %d, want 2", got)
	}
}

func TestHubSendJSON(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil, "ses_a")

	if err := h.SendJSON(conn, greeting{Type: "feed_connected", SessionID: "ses_a", Ts: 123}); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	var got greeting
	if err := json.Unmarshal(<-conn.Send, &got); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if got.Type != "feed_connected" || got.SessionID != "ses_a" {
		t.Fatalf("unexpected greeting: %+v", got)
	}
}

func TestHubSendBufferFull(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil, "ses_a")

	for i := 0; i < cap(conn.Send); i++ {
		if err := h.Send(conn, []byte("x")); err != nil {
			t.Fatalf("send %d failed early: %v", i, err)
		}
	}
	if err := h.Send(conn, []byte("overflow")); err != ErrBufferFull {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}
