package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	mem "leaderkit/adapters/memory"
	ws "leaderkit/adapters/websocket"
	"leaderkit/core"
	"leaderkit/engine"
	"leaderkit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	cache := mem.NewCache()
	store := mem.NewStore()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewLeaderboardService(cache, store, bus)
	hub := realtime.NewHub()

	// Forward leaderboard snapshots to WebSocket clients
	bus.Subscribe(core.EventLeaderboardUpdate, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/leaderboard/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /leaderboard/score, GET /leaderboard/{game}/top?limit=N,
		// GET /leaderboard/{game}/rank/{user}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if parts[1] == "score" {
				var body struct {
					GameID string `json:"gameId"`
					UserID string `json:"userId"`
					Score  int64  `json:"score"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					http.Error(w, err.Error(), 400)
					return
				}
				err := svc.SubmitScore(ctx, core.GameID(body.GameID), core.UserID(body.UserID), body.Score)
				writeJSON(w, map[string]any{"success": err == nil, "err": errString(err)})
				return
			}
		case http.MethodGet:
			game := core.GameID(parts[1])
			if len(parts) >= 3 && parts[2] == "top" {
				limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
				top, err := svc.TopPlayers(ctx, game, limit)
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				writeJSON(w, top)
				return
			}
			if len(parts) >= 4 && parts[2] == "rank" {
				rank, ok, err := svc.UserRank(ctx, game, core.UserID(parts[3]))
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				if !ok {
					writeJSON(w, map[string]any{"rank": nil})
					return
				}
				writeJSON(w, map[string]any{"rank": rank})
				return
			}
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
