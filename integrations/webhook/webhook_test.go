package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"leaderkit/core"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	var payload atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		b, _ := io.ReadAll(r.Body)
		payload.Store(b)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewLeaderboardUpdate("g1", []core.PlayerScore{{GameID: "g1", UserID: "alice", Score: 50}}))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
	var ev core.Event
	if err := json.Unmarshal(payload.Load().([]byte), &ev); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if ev.GameID != "g1" || ev.Top[0].UserID != "alice" {
		t.Fatalf("unexpected payload: %+v", ev)
	}
}

func TestSink_NoEndpointsIsNoop(t *testing.T) {
	sink := New(nil)
	sink.OnEvent(core.NewLeaderboardUpdate("g1", nil))
}
