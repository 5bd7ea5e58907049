// Package gateway defines the operations the agent needs from a remote game
// server and provides an HTTP implementation of them.
package gateway

import (
	"context"

	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
)

// GameSummary is an entry in the list of joinable games
type GameSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerGame is the lightweight game record returned by CheckPlayerGame
type PlayerGame struct {
	ID        string                   `json:"id"`
	State     gamestate.Phase          `json:"state"`
	CreatedAt string                   `json:"createdAt,omitempty"`
	Players   []*gamestate.PlayerState `json:"players"`
}

// PlayerByName returns the seat whose name matches, or nil
func (g *PlayerGame) PlayerByName(name string) *gamestate.PlayerState {
	if g == nil {
		return nil
	}
	for _, p := range g.Players {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// PlayerGameStatus reports whether the authenticated player is already seated
type PlayerGameStatus struct {
	InGame bool        `json:"inGame"`
	GameID string      `json:"gameId,omitempty"`
	Game   *PlayerGame `json:"game,omitempty"`
}

// Gateway is the set of server operations used by the scheduler. Implementations
// must not retry; retry and backoff policy belongs to the caller.
type Gateway interface {
	// ListAvailableGames may return a synthetic single entry when the server
	// has no listing endpoint.
	ListAvailableGames(ctx context.Context) ([]GameSummary, error)

	// CreateGame starts a new game and returns its id
	CreateGame(ctx context.Context, name string) (string, error)

	// GameState fetches the current snapshot for the seated player
	GameState(ctx context.Context, gameID, playerID string) (*gamestate.GameState, error)

	// JoinGame seats playerName and marks them ready, returning the player id.
	// Conflicts are reported as *Error with KindAlreadyInGame or KindGameFull.
	JoinGame(ctx context.Context, gameID, playerName string) (string, error)

	// SetPlayerReady marks the player ready for the next hand
	SetPlayerReady(ctx context.Context, playerID string) error

	// LeaveGame is best effort; servers without a leave endpoint may treat it
	// as local bookkeeping only.
	LeaveGame(ctx context.Context, gameID, playerID string) error

	// SubmitAction sends a decision; the action name is sent in lowercase
	SubmitAction(ctx context.Context, gameID, playerID string, d decision.Decision) error

	// CheckPlayerGame reports whether the player is already in a game
	CheckPlayerGame(ctx context.Context) (*PlayerGameStatus, error)
}
