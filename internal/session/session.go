// Package session owns the local mirror of a remote game and decides, for each
// fetched snapshot, what the agent has to do next.
package session

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/pokeragent/internal/gamestate"
)

const (
	// MinJoinBackoff is the initial and post-success delay between join attempts
	MinJoinBackoff = 5 * time.Second
	// MaxJoinBackoff caps the doubling of the join delay
	MaxJoinBackoff = 30 * time.Second
	// MaxFetchFailures is the number of consecutive state fetch failures
	// tolerated before the session is reset
	MaxFetchFailures = 5
)

// ErrPlayerNotFound means the remote roster no longer lists the local player
var ErrPlayerNotFound = errors.New("player not found in game state")

// Session is the process-owned view of the current game. It is not safe for
// concurrent use; the scheduler mutates it from a single goroutine.
type Session struct {
	gameID          string
	playerID        string
	playerName      string
	readySet        bool
	lastState       *gamestate.GameState
	fetchFailures   int
	lastJoinAttempt time.Time
	joinBackoff     time.Duration

	logger *log.Logger
}

// New creates an empty session for the named player
func New(playerName string, logger *log.Logger) *Session {
	return &Session{
		playerName:  playerName,
		joinBackoff: MinJoinBackoff,
		logger:      logger.WithPrefix("session").With("player", playerName),
	}
}

// GameID returns the joined game, or "" when not in a game
func (s *Session) GameID() string { return s.gameID }

// PlayerID returns the server-assigned player id, or "" when not in a game
func (s *Session) PlayerID() string { return s.playerID }

// PlayerName returns the agent's display name
func (s *Session) PlayerName() string { return s.playerName }

// InGame reports whether both a game and a player id are held
func (s *Session) InGame() bool { return s.gameID != "" }

// ReadySet reports whether the player has been marked ready this session
func (s *Session) ReadySet() bool { return s.readySet }

// LastState returns the most recently reconciled snapshot
func (s *Session) LastState() *gamestate.GameState { return s.lastState }

// FetchFailures returns the number of consecutive state fetch failures
func (s *Session) FetchFailures() int { return s.fetchFailures }

// JoinBackoff returns the current delay between join attempts
func (s *Session) JoinBackoff() time.Duration { return s.joinBackoff }

// LastJoinAttempt returns when a join was last attempted
func (s *Session) LastJoinAttempt() time.Time { return s.lastJoinAttempt }

// Join records a seat. Both ids are required so that the session never holds
// one without the other.
func (s *Session) Join(gameID, playerID string) {
	if gameID == "" || playerID == "" {
		s.logger.Error("Refusing partial join", "game", gameID, "playerId", playerID)
		return
	}
	s.gameID = gameID
	s.playerID = playerID
	s.fetchFailures = 0
}

// MarkReady records that the ready call succeeded and mirrors the flag into
// the cached snapshot so later polls do not repeat it.
func (s *Session) MarkReady() {
	s.readySet = true
	if s.lastState == nil {
		return
	}
	if p := s.lastState.PlayerByName(s.playerName); p != nil {
		p.SetReady(true)
	}
}

// CacheState stores a snapshot obtained outside of Reconcile, for example
// from a reconnection status check.
func (s *Session) CacheState(state *gamestate.GameState) {
	s.lastState = state
}

// Reset tears the game down. The player name and join backoff survive.
func (s *Session) Reset() {
	s.gameID = ""
	s.playerID = ""
	s.lastState = nil
	s.readySet = false
	s.fetchFailures = 0
}

// ShouldAttemptJoin reports whether the backoff since the last attempt has
// elapsed at now
func (s *Session) ShouldAttemptJoin(now time.Time) bool {
	return s.lastJoinAttempt.IsZero() || now.Sub(s.lastJoinAttempt) >= s.joinBackoff
}

// RecordJoinAttempt stamps the start of a join attempt
func (s *Session) RecordJoinAttempt(now time.Time) {
	s.lastJoinAttempt = now
}

// JoinSucceeded resets the join backoff
func (s *Session) JoinSucceeded() {
	s.joinBackoff = MinJoinBackoff
}

// JoinFailed doubles the join backoff up to MaxJoinBackoff
func (s *Session) JoinFailed() {
	s.joinBackoff = min(s.joinBackoff*2, MaxJoinBackoff)
}

// FetchFailed counts a failed state fetch and reports whether the failure
// threshold was exceeded, in which case the session has been reset.
func (s *Session) FetchFailed() bool {
	s.fetchFailures++
	if s.fetchFailures > MaxFetchFailures {
		s.logger.Warn("Too many state fetch failures, resetting session", "failures", s.fetchFailures)
		s.Reset()
		return true
	}
	return false
}

// FetchSucceeded clears the consecutive failure count
func (s *Session) FetchSucceeded() {
	s.fetchFailures = 0
}
