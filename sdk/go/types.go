package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// PlayerScore mirrors the public JSON surface of core.PlayerScore.
type PlayerScore struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
}

// Update is a leaderboard snapshot pushed over the WebSocket stream.
type Update struct {
	Event  string        `json:"event"`
	GameID string        `json:"gameId"`
	Top    []PlayerScore `json:"top"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError carries the structured error body returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: status %d (%s: %s)", e.StatusCode, e.Code, e.Message)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyGameID is returned when game id is empty.
var ErrEmptyGameID = errors.New("game id is required")

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
