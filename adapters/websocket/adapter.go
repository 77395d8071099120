package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"leaderkit/core"
	"leaderkit/realtime"
)

// joinMessage is the first frame a client sends to pick its game room.
type joinMessage struct {
	GameID string `json:"gameId"`
}

// Handler returns an http.Handler that upgrades to WebSocket, reads one join
// frame naming the game, and streams that game's leaderboard updates.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var join joinMessage
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		game, err := core.NormalizeGameID(core.GameID(join.GameID))
		if err != nil {
			return
		}

		id, ch := hub.Subscribe(game, 256)
		defer hub.Unsubscribe(game, id)

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
