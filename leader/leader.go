package leader

import (
	"context"

	mem "leaderkit/adapters/memory"
	"leaderkit/core"
	"leaderkit/engine"
	"leaderkit/integrations/webhook"
	"leaderkit/realtime"
)

// Option configures the Leaderboard service builder.
type Option func(*config)

type config struct {
	cache    engine.ScoreCache
	store    engine.ScoreStore
	mode     engine.DispatchMode
	topN     int
	hub      *realtime.Hub
	webhooks *webhook.Sink
}

// WithCache sets the ranked cache adapter.
func WithCache(c engine.ScoreCache) Option { return func(cfg *config) { cfg.cache = c } }

// WithStore sets the durable store adapter.
func WithStore(s engine.ScoreStore) Option { return func(cfg *config) { cfg.store = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(cfg *config) { cfg.mode = m } }

// WithTopN overrides the snapshot size published after submits.
func WithTopN(n int) Option { return func(cfg *config) { cfg.topN = n } }

// WithRealtime wires a realtime hub to receive leaderboard updates.
func WithRealtime(h *realtime.Hub) Option { return func(cfg *config) { cfg.hub = h } }

// WithWebhooks wires a webhook sink to receive leaderboard updates.
func WithWebhooks(s *webhook.Sink) Option { return func(cfg *config) { cfg.webhooks = s } }

// New builds a configured LeaderboardService. If not provided, defaults are used:
//   - cache: in-memory skip-list boards
//   - store: in-memory map
//   - dispatch: async
func New(opts ...Option) *engine.LeaderboardService {
	cfg := &config{mode: engine.DispatchAsync, topN: engine.DefaultTopN}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = mem.NewCache()
	}
	if cfg.store == nil {
		cfg.store = mem.NewStore()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewLeaderboardService(cfg.cache, cfg.store, bus)
	svc.SetTopN(cfg.topN)
	if cfg.hub != nil {
		// Bridge update snapshots to the per-game realtime rooms
		bus.Subscribe(core.EventLeaderboardUpdate, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
	}
	if cfg.webhooks != nil {
		bus.Subscribe(core.EventLeaderboardUpdate, func(_ context.Context, e core.Event) { cfg.webhooks.OnEvent(e) })
	}
	return svc
}
