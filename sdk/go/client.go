package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the leaderkit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// SubmitScore submits (or overwrites) a user's score for a game.
func (c *Client) SubmitScore(ctx context.Context, gameID, userID string, score int64) error {
	if strings.TrimSpace(gameID) == "" {
		return ErrEmptyGameID
	}
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}

	payload, err := json.Marshal(map[string]any{
		"gameId": gameID,
		"userId": userID,
		"score":  score,
	})
	if err != nil {
		return err
	}

	u := c.baseURL + "/leaderboard/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	if !body.Success {
		return errors.New("score not accepted")
	}
	return nil
}

// TopPlayers fetches up to limit players for a game ordered by score descending.
// A limit <= 0 uses the server default.
func (c *Client) TopPlayers(ctx context.Context, gameID string, limit int) ([]PlayerScore, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrEmptyGameID
	}

	u, err := url.Parse(fmt.Sprintf("%s/leaderboard/%s/top", c.baseURL, url.PathEscape(gameID)))
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", limit))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var top []PlayerScore
	if err := decodeJSON(resp, &top); err != nil {
		return nil, err
	}
	return top, nil
}

// UserRank returns the user's 1-based rank for a game. ok is false when the
// user has no ranked entry.
func (c *Client) UserRank(ctx context.Context, gameID, userID string) (rank int64, ok bool, err error) {
	if strings.TrimSpace(gameID) == "" {
		return 0, false, ErrEmptyGameID
	}
	if strings.TrimSpace(userID) == "" {
		return 0, false, ErrEmptyUserID
	}

	u := fmt.Sprintf("%s/leaderboard/%s/rank/%s", c.baseURL, url.PathEscape(gameID), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, false, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	var body struct {
		Rank *int64 `json:"rank"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, false, err
	}
	if body.Rank == nil {
		return 0, false, nil
	}
	return *body.Rank, true, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeUpdates joins the game's update stream over WebSocket and emits
// leaderboard snapshots. The returned channel closes when ctx is done or the
// connection drops.
func (c *Client) SubscribeUpdates(ctx context.Context, gameID string) (<-chan Update, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrEmptyGameID
	}
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	// the server expects a join frame naming the game before it streams
	if err := conn.WriteJSON(map[string]string{"gameId": gameID}); err != nil {
		conn.Close()
		return nil, err
	}

	out := make(chan Update, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var upd Update
				if err := conn.ReadJSON(&upd); err != nil {
					return
				}
				select {
				case out <- upd:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
