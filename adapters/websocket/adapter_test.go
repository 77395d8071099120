package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"leaderkit/core"
	"leaderkit/realtime"
)

func TestHandlerStreamsGameUpdates(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] // convert http->ws
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"gameId": "g1"}); err != nil {
		t.Fatalf("send join: %v", err)
	}

	// ensure subscriber goroutine is ready
	time.Sleep(10 * time.Millisecond)

	ev := core.NewLeaderboardUpdate("g1", []core.PlayerScore{{GameID: "g1", UserID: "alice", Score: 50}})
	hub.Broadcast(context.Background(), ev)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.GameID != "g1" || received.Top[0].UserID != "alice" {
		t.Fatalf("unexpected event: %+v", received)
	}
}

func TestHandlerIgnoresOtherGames(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"gameId": "g1"}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), core.NewLeaderboardUpdate("g2", nil))

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected no frame for another game's update")
	}
}
