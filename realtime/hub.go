package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"leaderkit/core"
)

// Hub is a simple pub/sub with one room per game. Subscribers of a game
// receive the leaderboard updates broadcast for that game only.
type Hub struct {
	mu    sync.RWMutex
	rooms map[core.GameID]map[int]chan core.Event
	next  int
}

func NewHub() *Hub { return &Hub{rooms: map[core.GameID]map[int]chan core.Event{}} }

// Subscribe joins the game's room and returns the subscriber id plus the
// event channel.
func (h *Hub) Subscribe(game core.GameID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.Event, buffer)
	if h.rooms[game] == nil {
		h.rooms[game] = map[int]chan core.Event{}
	}
	h.rooms[game][id] = ch
	return id, ch
}

func (h *Hub) Unsubscribe(game core.GameID, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[game]; ok {
		if ch, ok := room[id]; ok {
			delete(room, id)
			close(ch)
		}
		if len(room) == 0 {
			delete(h.rooms, game)
		}
	}
}

// Broadcast fans the event out to the room named by its game id.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	room := h.rooms[ev.GameID]
	receivers := make([]chan core.Event, 0, len(room))
	for _, ch := range room {
		receivers = append(receivers, ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- ev:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
