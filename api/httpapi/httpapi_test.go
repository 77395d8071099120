package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mem "leaderkit/adapters/memory"
	"leaderkit/engine"
)

type fixture struct {
	handler http.Handler
	cache   *mem.Cache
	store   *mem.Store
}

func newFixture(opts Options) fixture {
	cache := mem.NewCache()
	store := mem.NewStore()
	svc := engine.NewLeaderboardService(cache, store, engine.NewEventBus(engine.DispatchSync))
	return fixture{handler: NewMux(svc, nil, opts), cache: cache, store: store}
}

func postScore(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/leaderboard/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmitScoreSuccess(t *testing.T) {
	f := newFixture(Options{PathPrefix: "/api"})

	rec := postScore(t, f.handler, `{"gameId":"g1","userId":"alice","score":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Fatalf("expected success true, got %v", resp)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	cases := map[string]string{
		"negative score":   `{"gameId":"g1","userId":"alice","score":-1}`,
		"fractional score": `{"gameId":"g1","userId":"alice","score":3.5}`,
		"missing userId":   `{"gameId":"g1","score":10}`,
		"blank gameId":     `{"gameId":"  ","userId":"alice","score":10}`,
		"string score":     `{"gameId":"g1","userId":"alice","score":"ten"}`,
		"no body":          ``,
	}
	for name, body := range cases {
		f := newFixture(Options{PathPrefix: "/api"})
		rec := postScore(t, f.handler, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		// rejected submits must not touch either store
		top, _ := f.cache.TopN(context.Background(), "g1", 10)
		rows, _ := f.store.TopN(context.Background(), "g1", 10)
		if len(top) != 0 || len(rows) != 0 {
			t.Fatalf("%s: stores mutated: %#v %#v", name, top, rows)
		}
	}
}

func TestTopPlayers(t *testing.T) {
	f := newFixture(Options{PathPrefix: "/api"})

	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"alice","score":50}`)
	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"bob","score":70}`)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var top []struct {
		UserID string `json:"userId"`
		Score  int64  `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &top); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "bob" || top[0].Score != 70 {
		t.Fatalf("unexpected top: %#v", top)
	}
}

func TestTopPlayersLimit(t *testing.T) {
	f := newFixture(Options{PathPrefix: "/api"})
	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"alice","score":50}`)
	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"bob","score":70}`)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top?limit=1", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var top []json.RawMessage
	_ = json.Unmarshal(rec.Body.Bytes(), &top)
	if len(top) != 1 {
		t.Fatalf("limit not applied: %s", rec.Body.String())
	}

	for _, bad := range []string{"0", "-1", "abc", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top?limit="+bad, nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestUserRank(t *testing.T) {
	f := newFixture(Options{PathPrefix: "/api"})
	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"alice","score":50}`)
	_ = postScore(t, f.handler, `{"gameId":"g1","userId":"bob","score":70}`)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/rank/alice", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Rank *int64 `json:"rank"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Rank == nil || *resp.Rank != 2 {
		t.Fatalf("unexpected rank: %v", resp.Rank)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/rank/nobody", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp.Rank != nil {
		t.Fatalf("expected null rank, got %s", rec.Body.String())
	}
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(Options{
		PathPrefix:      "/api",
		APIKeys:         []string{"secret"},
		AllowCORSOrigin: "*",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top", nil)
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	f.handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(Options{
		PathPrefix:       "/api",
		APIKeys:          []string{"k"},
		RateLimitEnabled: true,
		RateLimitRPM:     1,
		RateLimitBurst:   1,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top", nil)
	req1.Header.Set("X-API-Key", "k")
	rec1 := httptest.NewRecorder()
	f.handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 first request, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/leaderboard/g1/top", nil)
	req2.Header.Set("X-API-Key", "k")
	rec2 := httptest.NewRecorder()
	f.handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(Options{PathPrefix: "/api"})
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
