package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// CurrentGameID is the id used by servers that host a single game
	CurrentGameID = "current"

	maxErrorBody = 64 << 10
)

// HTTPClient talks to the game server's REST API
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewHTTPClient creates a gateway for the server at baseURL. A zero timeout
// leaves request deadlines to the caller's context.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithPrefix("gateway"),
	}
}

// BaseURL returns the server URL requests are sent to
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ListAvailableGames returns a single synthetic entry; the server exposes no
// listing endpoint and hosts one game at a time.
func (c *HTTPClient) ListAvailableGames(ctx context.Context) ([]GameSummary, error) {
	c.logger.Debug("Using synthetic game listing")
	return []GameSummary{{ID: CurrentGameID, Name: "Poker Game"}}, nil
}

// CreateGame asks the server to start a new game. The server does not return
// an id, so the single-game id is returned.
func (c *HTTPClient) CreateGame(ctx context.Context, name string) (string, error) {
	if err := c.do(ctx, "create game", http.MethodPost, "/api/game/new-game", nil, nil); err != nil {
		return "", err
	}
	c.logger.Info("Created game", "name", name)
	return CurrentGameID, nil
}

// GameState fetches the snapshot for playerID
func (c *HTTPClient) GameState(ctx context.Context, gameID, playerID string) (*gamestate.GameState, error) {
	if playerID == "" {
		return nil, &Error{Op: "get game state", Kind: KindProtocol, Message: "player id is not set"}
	}

	var state gamestate.GameState
	path := "/api/game/state/" + url.PathEscape(playerID)
	if err := c.do(ctx, "get game state", http.MethodGet, path, nil, &state); err != nil {
		return nil, err
	}
	if state.GameID == "" {
		state.GameID = gameID
	}
	return &state, nil
}

// JoinGame seats the player and immediately marks them ready
func (c *HTTPClient) JoinGame(ctx context.Context, gameID, playerName string) (string, error) {
	req := struct {
		PlayerName string `json:"playerName"`
	}{PlayerName: playerName}

	var resp struct {
		PlayerID string `json:"playerId"`
	}
	c.logger.Info("Joining game", "game", gameID, "player", playerName)
	if err := c.do(ctx, "join game", http.MethodPost, "/api/game/join", req, &resp); err != nil {
		return "", err
	}
	if resp.PlayerID == "" {
		return "", &Error{Op: "join game", Kind: KindProtocol, Message: "response has no playerId"}
	}

	if err := c.SetPlayerReady(ctx, resp.PlayerID); err != nil {
		return "", err
	}
	return resp.PlayerID, nil
}

// SetPlayerReady marks the player ready
func (c *HTTPClient) SetPlayerReady(ctx context.Context, playerID string) error {
	path := "/api/game/ready/" + url.PathEscape(playerID)
	return c.do(ctx, "set player ready", http.MethodPost, path, nil, nil)
}

// LeaveGame only records the departure; the server has no leave endpoint
func (c *HTTPClient) LeaveGame(ctx context.Context, gameID, playerID string) error {
	c.logger.Info("Leaving game", "game", gameID, "player", playerID)
	return nil
}

// SubmitAction posts a move for playerID
func (c *HTTPClient) SubmitAction(ctx context.Context, gameID, playerID string, d decision.Decision) error {
	req := struct {
		Action string `json:"action"`
		Amount *int   `json:"amount,omitempty"`
	}{Action: strings.ToLower(d.Action.String())}
	if d.Action == decision.Raise {
		amount := d.Amount
		req.Amount = &amount
	}

	path := "/api/game/move/" + url.PathEscape(playerID)
	return c.do(ctx, "submit action", http.MethodPost, path, req, nil)
}

// CheckPlayerGame asks which game, if any, the API key's player is seated in
func (c *HTTPClient) CheckPlayerGame(ctx context.Context) (*PlayerGameStatus, error) {
	var status PlayerGameStatus
	if err := c.do(ctx, "check player game", http.MethodGet, "/api/game/player-game", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindProtocol, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	c.logger.Debug("Sending request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindProtocol, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// responseError builds a typed error from a non-2xx response. The server sends
// {"error": "...", "gameId": "..."} for join conflicts.
func (c *HTTPClient) responseError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		GameID  string `json:"gameId"`
	}
	_ = json.Unmarshal(raw, &payload)

	message := payload.Error
	if message == "" {
		message = payload.Message
	}
	if message == "" {
		message = text
	}

	gerr := &Error{
		Op:      op,
		Kind:    classify(resp.StatusCode, message),
		Status:  resp.StatusCode,
		Message: message,
		Body:    text,
		GameID:  payload.GameID,
	}
	c.logger.Warn("Request failed", "op", op, "status", resp.StatusCode, "kind", gerr.Kind, "body", text)
	return gerr
}

var _ Gateway = (*HTTPClient)(nil)
