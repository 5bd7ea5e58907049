package session

import (
	"github.com/lox/pokeragent/internal/gamestate"
)

// OutcomeKind is what a reconciled snapshot asks of the caller
type OutcomeKind int

const (
	// NoAction means nothing to do until the next poll
	NoAction OutcomeKind = iota
	// PlayerNotFound means the roster lost the local player; the session was reset
	PlayerNotFound
	// GameOver means the game finished; the session was reset
	GameOver
	// ReadyRequired means the caller must call the ready endpoint and then MarkReady
	ReadyRequired
	// ActionRequired means it is the local player's turn
	ActionRequired
)

func (k OutcomeKind) String() string {
	switch k {
	case NoAction:
		return "no-action"
	case PlayerNotFound:
		return "player-not-found"
	case GameOver:
		return "game-over"
	case ReadyRequired:
		return "ready-required"
	case ActionRequired:
		return "action-required"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling one snapshot. State and Player are set
// for ReadyRequired and ActionRequired.
type Outcome struct {
	Kind   OutcomeKind
	State  *gamestate.GameState
	Player *gamestate.PlayerState
}

// Reconcile merges a freshly fetched snapshot into the session and decides
// what, if anything, the agent must do.
func (s *Session) Reconcile(state *gamestate.GameState) Outcome {
	if state.IsGameOver {
		fields := []any{"game", s.gameID, "finalPot", state.FinalPot,
			"finalCommunityCards", gamestate.FormatCards(state.FinalCommunityCards)}
		if state.Winner != nil {
			fields = append(fields, "winner", state.Winner.Name)
		}
		s.logger.Info("Game is over", fields...)
		s.Reset()
		return Outcome{Kind: GameOver}
	}

	s.lastState = state

	// ids can be reassigned when the server reconnects us, so match by name
	me := state.PlayerByName(s.playerName)
	if me == nil {
		s.logger.Error("Cannot make decisions", "error", ErrPlayerNotFound, "game", s.gameID)
		s.Reset()
		return Outcome{Kind: PlayerNotFound}
	}

	if me.ID != "" && me.ID != s.playerID {
		s.logger.Info("Updating player id", "from", s.playerID, "to", me.ID)
		s.playerID = me.ID
	}

	if state.Phase == gamestate.PhaseWaiting {
		switch {
		case s.readySet:
			s.logger.Debug("Ready already set this session, waiting for game to start")
			return Outcome{Kind: NoAction}
		case me.IsReady():
			s.logger.Debug("Server reports player ready, waiting for game to start")
			s.readySet = true
			return Outcome{Kind: NoAction}
		default:
			return Outcome{Kind: ReadyRequired, State: state, Player: me}
		}
	}

	actor := state.CurrentActor()
	if actor == nil || actor.Name != s.playerName {
		return Outcome{Kind: NoAction}
	}
	return Outcome{Kind: ActionRequired, State: state, Player: me}
}
