package core

import "testing"

func TestNormalizeGameID(t *testing.T) {
	id, err := NormalizeGameID(" g1 ")
	if err != nil || id != "g1" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeGameID("   "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID(" Alice ")
	if err != nil || id != "Alice" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeUserID(""); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestValidateScore(t *testing.T) {
	if err := ValidateScore(0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateScore(-1); err == nil {
		t.Fatalf("expected negative score err")
	}
}

func TestNewLeaderboardUpdate(t *testing.T) {
	top := []PlayerScore{{GameID: "g1", UserID: "alice", Score: 50}}
	ev := NewLeaderboardUpdate("g1", top)
	if ev.Name != EventLeaderboardUpdate || ev.GameID != "g1" || len(ev.Top) != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Fatal("expected event time")
	}
}
