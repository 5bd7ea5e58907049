package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokeragent/internal/agent"
	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
	"github.com/lox/pokeragent/internal/gateway"
	"github.com/lox/pokeragent/internal/session"
)

// fakeGateway is an in-memory Gateway that records every call
type fakeGateway struct {
	mu sync.Mutex

	games      []gateway.GameSummary
	listErr    error
	joinErr    error
	stateErr   error
	state      *gamestate.GameState
	playerGame func(call int) (*gateway.PlayerGameStatus, error)

	listCalls   int
	createCalls int
	joinCalls   int
	checkCalls  int
	readyCalls  []string
	leaveCalls  int
	actions     []decision.Decision
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{games: []gateway.GameSummary{{ID: gateway.CurrentGameID, Name: "Poker Game"}}}
}

func (f *fakeGateway) ListAvailableGames(ctx context.Context) ([]gateway.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.games, f.listErr
}

func (f *fakeGateway) CreateGame(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return "created", nil
}

func (f *fakeGateway) GameState(ctx context.Context, gameID, playerID string) (*gamestate.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeGateway) JoinGame(ctx context.Context, gameID, playerName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++
	if f.joinErr != nil {
		return "", f.joinErr
	}
	// the HTTP gateway readies the player as part of joining
	f.readyCalls = append(f.readyCalls, "p-1")
	return "p-1", nil
}

func (f *fakeGateway) SetPlayerReady(ctx context.Context, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls = append(f.readyCalls, playerID)
	return nil
}

func (f *fakeGateway) LeaveGame(ctx context.Context, gameID, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls++
	return nil
}

func (f *fakeGateway) SubmitAction(ctx context.Context, gameID, playerID string, d decision.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, d)
	return nil
}

func (f *fakeGateway) CheckPlayerGame(ctx context.Context) (*gateway.PlayerGameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.playerGame == nil {
		return &gateway.PlayerGameStatus{}, nil
	}
	return f.playerGame(f.checkCalls)
}

func (f *fakeGateway) setState(state *gamestate.GameState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

func (f *fakeGateway) counts() (joins, leaves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joinCalls, f.leaveCalls
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestScheduler(t *testing.T, gw gateway.Gateway, reply string, opts Options) (*Scheduler, *quartz.Mock) {
	t.Helper()
	logger := quietLogger()
	clock := quartz.NewMock(t)
	decider := agent.NewDecider(agent.StaticGenerator{Reply: reply}, agent.StaticIdentity("bot"), logger)
	return New(gw, decider, session.New("bot", logger), opts, clock, logger), clock
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func table(phase gamestate.Phase, current, currentBet int) *gamestate.GameState {
	return &gamestate.GameState{
		GameID:             gateway.CurrentGameID,
		Phase:              phase,
		Pot:                30,
		CurrentBet:         currentBet,
		CurrentPlayerIndex: intPtr(current),
		Players: []*gamestate.PlayerState{
			{ID: "p-0", Name: "alice", Chips: 1000},
			{ID: "p-1", Name: "bot", Chips: 1000, Ready: boolPtr(false), Hand: gamestate.MustParseCards("7c", "2d")},
		},
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	s, _ := newTestScheduler(t, gw, "FOLD", Options{})

	s.Tick(ctx)
	require.Equal(t, StateInGame, s.State())
	assert.Equal(t, gateway.CurrentGameID, s.Session().GameID())
	assert.Equal(t, "p-1", s.Session().PlayerID())

	// waiting and not ready according to the server: ready has already been
	// sent by the join and must not be repeated
	gw.setState(table(gamestate.PhaseWaiting, 0, 0))
	for i := 0; i < 3; i++ {
		s.Tick(ctx)
	}
	assert.Equal(t, []string{"p-1"}, gw.readyCalls)
	assert.Empty(t, gw.actions)

	gw.setState(table(gamestate.PhasePreflop, 0, 10))
	s.Tick(ctx)
	assert.Empty(t, gw.actions, "not our turn")

	gw.setState(table(gamestate.PhasePreflop, 1, 0))
	s.Tick(ctx)
	require.Len(t, gw.actions, 1)
	assert.Equal(t, decision.CheckDecision(), gw.actions[0], "a free fold becomes a check")
	assert.Equal(t, StateInGame, s.State())
}

func TestSchedulerSubmitsResolvedAllIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	s, _ := newTestScheduler(t, gw, "ALL IN", Options{})

	s.Tick(ctx)
	state := table(gamestate.PhaseFlop, 1, 50)
	state.Players[1].CurrentBet = 20
	gw.setState(state)
	s.Tick(ctx)

	require.Len(t, gw.actions, 1)
	assert.Equal(t, decision.Raise, gw.actions[0].Action)
	assert.Equal(t, 1020, gw.actions[0].Amount)
}

func TestSchedulerJoinBackoff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	gw.listErr = errors.New("server down")
	s, clock := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(ctx)
	assert.Equal(t, StateBackoff, s.State())
	assert.Equal(t, 10*time.Second, s.Session().JoinBackoff())
	assert.Equal(t, 1, gw.listCalls)

	clock.Advance(5 * time.Second)
	s.Tick(ctx)
	assert.Equal(t, 1, gw.listCalls, "backoff not yet elapsed")

	clock.Advance(5 * time.Second)
	s.Tick(ctx)
	assert.Equal(t, 2, gw.listCalls)

	prev := s.Session().JoinBackoff()
	for i := 0; i < 5; i++ {
		clock.Advance(s.Session().JoinBackoff())
		s.Tick(ctx)
		assert.GreaterOrEqual(t, s.Session().JoinBackoff(), prev)
		assert.LessOrEqual(t, s.Session().JoinBackoff(), session.MaxJoinBackoff)
		prev = s.Session().JoinBackoff()
	}
	assert.Equal(t, session.MaxJoinBackoff, s.Session().JoinBackoff())

	gw.mu.Lock()
	gw.listErr = nil
	gw.mu.Unlock()

	clock.Advance(session.MaxJoinBackoff)
	s.Tick(ctx)
	assert.Equal(t, StateInGame, s.State())
	assert.Equal(t, session.MinJoinBackoff, s.Session().JoinBackoff())
}

func TestSchedulerJoinFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		joinErr error
	}{
		{name: "game full", joinErr: &gateway.Error{Op: "join game", Kind: gateway.KindGameFull}},
		{name: "http error", joinErr: &gateway.Error{Op: "join game", Kind: gateway.KindHTTP, Status: 500}},
		{name: "already in game without id", joinErr: &gateway.Error{Op: "join game", Kind: gateway.KindAlreadyInGame}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := newFakeGateway()
			gw.joinErr = tt.joinErr
			s, _ := newTestScheduler(t, gw, "CHECK", Options{})

			s.Tick(context.Background())
			assert.Equal(t, StateBackoff, s.State())
			assert.False(t, s.Session().InGame())
			assert.Equal(t, 2*session.MinJoinBackoff, s.Session().JoinBackoff())
			assert.Empty(t, gw.readyCalls)
		})
	}
}

func TestSchedulerAlreadyInGameRecovery(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.joinErr = &gateway.Error{Op: "join game", Kind: gateway.KindAlreadyInGame, GameID: "g-9"}
	gw.playerGame = func(call int) (*gateway.PlayerGameStatus, error) {
		if call == 1 {
			return &gateway.PlayerGameStatus{}, nil
		}
		return &gateway.PlayerGameStatus{
			InGame: true,
			GameID: "g-9",
			Game: &gateway.PlayerGame{
				ID:      "g-9",
				State:   gamestate.PhaseWaiting,
				Players: []*gamestate.PlayerState{{ID: "p-7", Name: "bot", Ready: boolPtr(false)}},
			},
		}, nil
	}
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(context.Background())
	assert.Equal(t, StateInGame, s.State())
	assert.Equal(t, "g-9", s.Session().GameID())
	assert.Equal(t, "p-7", s.Session().PlayerID())
	assert.True(t, s.Session().ReadySet())
	assert.Equal(t, []string{"p-7"}, gw.readyCalls)
	assert.Equal(t, session.MinJoinBackoff, s.Session().JoinBackoff())
}

func TestSchedulerAdoptsExistingSeat(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.playerGame = func(int) (*gateway.PlayerGameStatus, error) {
		return &gateway.PlayerGameStatus{
			InGame: true,
			Game: &gateway.PlayerGame{
				ID:      "g-3",
				Players: []*gamestate.PlayerState{{ID: "p-3", Name: "bot", Ready: boolPtr(true)}},
			},
		}, nil
	}
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(context.Background())
	assert.Equal(t, StateInGame, s.State())
	assert.Equal(t, "g-3", s.Session().GameID())
	assert.Zero(t, gw.joinCalls)
	assert.Zero(t, gw.listCalls)
	assert.Empty(t, gw.readyCalls, "already ready on the server")
}

func TestSchedulerIgnoresForeignSeatAndJoins(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.playerGame = func(int) (*gateway.PlayerGameStatus, error) {
		return &gateway.PlayerGameStatus{
			InGame: true,
			GameID: "g-3",
			Game:   &gateway.PlayerGame{ID: "g-3", Players: []*gamestate.PlayerState{{ID: "p-9", Name: "alice"}}},
		}, nil
	}
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(context.Background())
	assert.Equal(t, StateInGame, s.State())
	assert.Equal(t, gateway.CurrentGameID, s.Session().GameID())
	assert.Equal(t, 1, gw.joinCalls)
}

func TestSchedulerCreatesGameWhenNoneListed(t *testing.T) {
	t.Parallel()

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		gw := newFakeGateway()
		gw.games = nil
		s, _ := newTestScheduler(t, gw, "CHECK", Options{CreateGame: true})

		s.Tick(context.Background())
		assert.Equal(t, 1, gw.createCalls)
		assert.Equal(t, "created", s.Session().GameID())
		assert.Equal(t, StateInGame, s.State())
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		gw := newFakeGateway()
		gw.games = nil
		s, _ := newTestScheduler(t, gw, "CHECK", Options{})

		s.Tick(context.Background())
		assert.Zero(t, gw.createCalls)
		assert.Zero(t, gw.joinCalls)
		assert.Equal(t, StateBackoff, s.State())
	})
}

func TestSchedulerFetchFailuresReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(ctx)
	require.Equal(t, StateInGame, s.State())

	gw.mu.Lock()
	gw.stateErr = errors.New("timeout")
	gw.mu.Unlock()

	for i := 0; i < session.MaxFetchFailures; i++ {
		s.Tick(ctx)
		require.Equal(t, StateInGame, s.State())
	}
	s.Tick(ctx)
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Session().InGame())
	assert.Equal(t, session.MinJoinBackoff, s.Session().JoinBackoff(), "backoff untouched")
}

func TestSchedulerGameOverResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	s, clock := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(ctx)
	gw.setState(&gamestate.GameState{IsGameOver: true, Winner: &gamestate.Winner{Name: "alice"}})
	s.Tick(ctx)
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Session().InGame())
	assert.Equal(t, "bot", s.Session().PlayerName())

	clock.Advance(session.MinJoinBackoff)
	s.Tick(ctx)
	assert.Equal(t, StateInGame, s.State())
	assert.Equal(t, 2, gw.joinCalls)
}

func TestSchedulerPlayerMissingResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := newFakeGateway()
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})

	s.Tick(ctx)
	state := table(gamestate.PhaseFlop, 0, 0)
	state.Players = state.Players[:1]
	gw.setState(state)
	s.Tick(ctx)

	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Session().InGame())
	assert.Empty(t, gw.actions)
}

func TestSchedulerIntervalClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 0, want: DefaultInterval},
		{in: time.Second, want: MinInterval},
		{in: 3 * time.Second, want: 3 * time.Second},
		{in: time.Minute, want: MaxInterval},
	}

	for _, tt := range tests {
		s, _ := newTestScheduler(t, newFakeGateway(), "CHECK", Options{Interval: tt.in})
		assert.Equal(t, tt.want, s.Interval(), "interval %s", tt.in)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gw := newFakeGateway()
	s, clock := newTestScheduler(t, gw, "CHECK", Options{Interval: 2 * time.Second})

	require.NoError(t, s.Start(ctx))
	require.ErrorIs(t, s.Start(ctx), ErrAlreadyStarted)

	clock.Advance(2 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool {
		joins, _ := gw.counts()
		return joins == 1
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.State() == StateInGame }, time.Second, 10*time.Millisecond)

	s.Stop()
	_, leaves := gw.counts()
	assert.Equal(t, 1, leaves)
	assert.False(t, s.Session().InGame())
	assert.Equal(t, StateIdle, s.State())

	s.Stop()
	_, leaves = gw.counts()
	assert.Equal(t, 1, leaves, "second stop is a no-op")
	assert.ErrorIs(t, s.Start(ctx), ErrAlreadyStarted)
}

func TestSchedulerStopWithoutGame(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	s, _ := newTestScheduler(t, gw, "CHECK", Options{})
	s.Stop()

	_, leaves := gw.counts()
	assert.Zero(t, leaves)
}
