// Package scheduler drives the agent: on every tick it either tries to get a
// seat or polls the current game and acts on it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/looplab/fsm"

	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
	"github.com/lox/pokeragent/internal/gateway"
	"github.com/lox/pokeragent/internal/session"
)

// Scheduler states
const (
	StateIdle           = "idle"
	StateAttemptingJoin = "attempting-join"
	StateInGame         = "in-game"
	StateBackoff        = "backoff"
)

const (
	eventAttempt    = "attempt"
	eventJoined     = "joined"
	eventJoinFailed = "join-failed"
	eventReset      = "reset"
)

const (
	// DefaultInterval is the default delay between ticks
	DefaultInterval = 5 * time.Second
	// MinInterval and MaxInterval bound the configurable tick interval
	MinInterval = 2 * time.Second
	MaxInterval = 5 * time.Second

	leaveTimeout = 5 * time.Second
)

var (
	// ErrAlreadyStarted is returned by Start on a running scheduler
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrNoGames means discovery found nothing to join
	ErrNoGames = errors.New("no games available")
)

// Decider picks a move for the local player
type Decider interface {
	Decide(ctx context.Context, state *gamestate.GameState, player *gamestate.PlayerState) decision.Decision
}

// Options tune the scheduler
type Options struct {
	// Interval between ticks, clamped to [MinInterval, MaxInterval]
	Interval time.Duration
	// CreateGame asks the server for a new game when none are listed
	CreateGame bool
}

// Scheduler owns the session and runs ticks one at a time
type Scheduler struct {
	gateway gateway.Gateway
	decider Decider
	session *session.Session
	opts    Options
	clock   quartz.Clock
	logger  *log.Logger

	sm *fsm.FSM

	// tickMu serializes ticks with the final leave in Stop
	tickMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a scheduler for the player named in sess
func New(gw gateway.Gateway, decider Decider, sess *session.Session, opts Options, clock quartz.Clock, logger *log.Logger) *Scheduler {
	switch {
	case opts.Interval <= 0:
		opts.Interval = DefaultInterval
	case opts.Interval < MinInterval:
		opts.Interval = MinInterval
	case opts.Interval > MaxInterval:
		opts.Interval = MaxInterval
	}

	s := &Scheduler{
		gateway: gw,
		decider: decider,
		session: sess,
		opts:    opts,
		clock:   clock,
		logger:  logger.WithPrefix("scheduler").With("player", sess.PlayerName()),
	}

	s.sm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventAttempt, Src: []string{StateIdle, StateBackoff}, Dst: StateAttemptingJoin},
			{Name: eventJoined, Src: []string{StateAttemptingJoin}, Dst: StateInGame},
			{Name: eventJoinFailed, Src: []string{StateAttemptingJoin}, Dst: StateBackoff},
			{Name: eventReset, Src: []string{StateAttemptingJoin, StateInGame, StateBackoff}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				s.logger.Debug("State transition", "from", e.Src, "to", e.Dst)
			},
		},
	)
	return s
}

// State returns the current scheduler state
func (s *Scheduler) State() string {
	return s.sm.Current()
}

// Session exposes the session. It must not be mutated while the scheduler runs.
func (s *Scheduler) Session() *session.Session {
	return s.session
}

// Interval returns the effective tick interval
func (s *Scheduler) Interval() time.Duration {
	return s.opts.Interval
}

func (s *Scheduler) fire(event string) {
	if !s.sm.Can(event) {
		return
	}
	if err := s.sm.Event(event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			s.logger.Warn("State transition failed", "event", event, "error", err)
		}
	}
}

// Start begins ticking in a background goroutine. The ticker is created
// before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || s.stopped {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := s.clock.NewTicker(s.opts.Interval, "scheduler", "tick")
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("Starting", "interval", s.opts.Interval)
	go s.run(ctx, ticker)
	return nil
}

func (s *Scheduler) run(ctx context.Context, ticker *quartz.Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop halts ticking, waits for an in-flight tick and leaves the current game.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if !s.session.InGame() {
		s.logger.Info("Stopped")
		return
	}

	ctx, cancelLeave := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancelLeave()
	if err := s.gateway.LeaveGame(ctx, s.session.GameID(), s.session.PlayerID()); err != nil {
		s.logger.Warn("Failed to leave game", "game", s.session.GameID(), "error", err)
	}
	s.session.Reset()
	s.fire(eventReset)
	s.logger.Info("Stopped")
}

// Tick runs one scheduling step to completion
func (s *Scheduler) Tick(ctx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.session.InGame() {
		s.pollGame(ctx)
		return
	}

	now := s.clock.Now()
	if !s.session.ShouldAttemptJoin(now) {
		return
	}
	s.session.RecordJoinAttempt(now)
	s.fire(eventAttempt)

	if err := s.joinOrDiscover(ctx); err != nil {
		s.session.Reset()
		s.session.JoinFailed()
		s.fire(eventJoinFailed)
		s.logger.Warn("Join failed", "error", err, "retryIn", s.session.JoinBackoff())
		return
	}

	s.session.JoinSucceeded()
	s.fire(eventJoined)
	s.logger.Info("Joined game", "game", s.session.GameID(), "playerId", s.session.PlayerID())
}

func (s *Scheduler) joinOrDiscover(ctx context.Context) error {
	name := s.session.PlayerName()

	// the reconnection check is advisory; a server without it still lets us join
	if status, err := s.gateway.CheckPlayerGame(ctx); err != nil {
		s.logger.Debug("Player game check failed", "error", err)
	} else if s.adopt(ctx, status) {
		return nil
	}

	games, err := s.gateway.ListAvailableGames(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		if !s.opts.CreateGame {
			return ErrNoGames
		}
		id, err := s.gateway.CreateGame(ctx, name+"'s table")
		if err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		games = []gateway.GameSummary{{ID: id}}
	}

	gameID := games[0].ID
	playerID, err := s.gateway.JoinGame(ctx, gameID, name)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindAlreadyInGame && gateway.ConflictingGameID(err) != "" {
			s.logger.Info("Already seated elsewhere, recovering", "game", gateway.ConflictingGameID(err))
			status, cerr := s.gateway.CheckPlayerGame(ctx)
			if cerr == nil && s.adopt(ctx, status) {
				return nil
			}
			if cerr != nil {
				return fmt.Errorf("recover existing game: %w", cerr)
			}
		}
		return fmt.Errorf("join game %s: %w", gameID, err)
	}

	s.session.Join(gameID, playerID)
	// the gateway readies the player as part of joining
	s.session.MarkReady()
	return nil
}

// adopt takes over a game the server says we already sit in
func (s *Scheduler) adopt(ctx context.Context, status *gateway.PlayerGameStatus) bool {
	if status == nil || !status.InGame || status.Game == nil {
		return false
	}

	me := status.Game.PlayerByName(s.session.PlayerName())
	if me == nil || me.ID == "" {
		s.logger.Warn("Server reports an active game but we are not on its roster", "game", status.GameID)
		return false
	}

	gameID := status.GameID
	if gameID == "" {
		gameID = status.Game.ID
	}
	s.session.Join(gameID, me.ID)
	if !s.session.InGame() {
		return false
	}

	if me.IsReady() {
		s.session.MarkReady()
		return true
	}
	if err := s.gateway.SetPlayerReady(ctx, me.ID); err != nil {
		s.logger.Warn("Failed to mark player ready", "error", err)
		return true
	}
	s.session.MarkReady()
	return true
}

func (s *Scheduler) pollGame(ctx context.Context) {
	gameID, playerID := s.session.GameID(), s.session.PlayerID()

	state, err := s.gateway.GameState(ctx, gameID, playerID)
	if err != nil {
		s.logger.Warn("Failed to fetch game state", "game", gameID, "error", err, "failures", s.session.FetchFailures()+1)
		if s.session.FetchFailed() {
			s.fire(eventReset)
		}
		return
	}
	s.session.FetchSucceeded()

	out := s.session.Reconcile(state)
	switch out.Kind {
	case session.PlayerNotFound, session.GameOver:
		s.fire(eventReset)
	case session.ReadyRequired:
		if err := s.gateway.SetPlayerReady(ctx, s.session.PlayerID()); err != nil {
			s.logger.Warn("Failed to mark player ready", "error", err)
			return
		}
		s.session.MarkReady()
		s.logger.Info("Marked ready", "game", gameID)
	case session.ActionRequired:
		s.act(ctx, out)
	}
}

func (s *Scheduler) act(ctx context.Context, out session.Outcome) {
	d := s.decider.Decide(ctx, out.State, out.Player).Resolve(out.State, out.Player)

	s.logger.Info("Submitting action", "phase", out.State.Phase, "action", d,
		"pot", out.State.Pot, "currentBet", out.State.CurrentBet, "chips", out.Player.Chips)
	if err := s.gateway.SubmitAction(ctx, s.session.GameID(), s.session.PlayerID(), d); err != nil {
		s.logger.Error("Failed to submit action", "action", d, "error", err)
	}
}
