// Package gamestate defines the snapshot of a remote poker game as reported by
// the game server, along with the card codes it contains.
package gamestate

// Phase is the betting phase of a hand
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseWaiting, PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver, PhaseShowdown:
		return true
	}
	return false
}

// Blind describes a posted blind
type Blind struct {
	Amount int    `json:"amount"`
	Player string `json:"player"`
}

// Winner identifies the winner of a finished game
type Winner struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// PlayerState is a single seat in a game snapshot
type PlayerState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Chips      int    `json:"chips"`
	Folded     bool   `json:"isFolded"`
	CurrentBet int    `json:"currentBet"`
	Hand       []Card `json:"hand,omitempty"`
	Position   string `json:"position,omitempty"`
	Ready      *bool  `json:"isReady,omitempty"`
}

// IsReady reports the server-side ready flag, false when not reported
func (p *PlayerState) IsReady() bool {
	return p.Ready != nil && *p.Ready
}

// SetReady records the ready flag on the snapshot
func (p *PlayerState) SetReady(ready bool) {
	p.Ready = &ready
}

// UnmarshalJSON accepts the field aliases used by different server versions
// (folded/isFolded and cards/hand).
func (p *PlayerState) UnmarshalJSON(data []byte) error {
	type plain PlayerState
	var aux struct {
		plain
		FoldedAlt *bool  `json:"folded"`
		Cards     []Card `json:"cards"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PlayerState(aux.plain)
	if aux.FoldedAlt != nil && !p.Folded {
		p.Folded = *aux.FoldedAlt
	}
	if len(p.Hand) == 0 && len(aux.Cards) > 0 {
		p.Hand = aux.Cards
	}
	return nil
}

// GameState is an immutable snapshot of a remote game, fetched once per poll
type GameState struct {
	GameID              string         `json:"gameId"`
	Pot                 int            `json:"pot"`
	CurrentBet          int            `json:"currentBet"`
	Players             []*PlayerState `json:"players"`
	CommunityCards      []Card         `json:"communityCards"`
	Phase               Phase          `json:"gameState"`
	CurrentPlayerIndex  *int           `json:"currentPlayerIndex,omitempty"`
	CurrentPlayer       string         `json:"currentPlayer,omitempty"`
	CurrentPlayerName   string         `json:"currentPlayerName,omitempty"`
	MinRaise            int            `json:"minRaise,omitempty"`
	MaxRaise            int            `json:"maxRaise,omitempty"`
	IsGameOver          bool           `json:"isGameOver"`
	Winner              *Winner        `json:"winner,omitempty"`
	FinalPot            int            `json:"finalPot,omitempty"`
	FinalCommunityCards []Card         `json:"finalCommunityCards,omitempty"`
	RoundHistory        []string       `json:"roundHistory,omitempty"`
	ActionHistory       []string       `json:"actionHistory,omitempty"`
	SmallBlind          *Blind         `json:"smallBlind,omitempty"`
	BigBlind            *Blind         `json:"bigBlind,omitempty"`
	ReadyPlayers        int            `json:"readyPlayers,omitempty"`
	TotalPlayers        int            `json:"totalPlayers,omitempty"`
	LastAction          string         `json:"lastAction,omitempty"`
	LastRaiseAmount     int            `json:"lastRaiseAmount,omitempty"`
}

// UnmarshalJSON falls back to the "round" and "status" fields when the server
// omits "gameState".
func (gs *GameState) UnmarshalJSON(data []byte) error {
	type plain GameState
	var aux struct {
		plain
		Round  Phase  `json:"round"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*gs = GameState(aux.plain)
	if gs.Phase == "" {
		switch {
		case aux.Round != "":
			gs.Phase = aux.Round
		case aux.Status == "waiting":
			gs.Phase = PhaseWaiting
		}
	}
	if aux.Status == "finished" {
		gs.IsGameOver = true
	}
	return nil
}

// PlayerByName returns the seat whose name matches, or nil
func (gs *GameState) PlayerByName(name string) *PlayerState {
	for _, p := range gs.Players {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// PlayerByID returns the seat whose id matches, or nil
func (gs *GameState) PlayerByID(id string) *PlayerState {
	for _, p := range gs.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentActor resolves the player expected to act next. The index is
// preferred, then the current player id, then the current player name.
func (gs *GameState) CurrentActor() *PlayerState {
	if gs.CurrentPlayerIndex != nil {
		idx := *gs.CurrentPlayerIndex
		if idx >= 0 && idx < len(gs.Players) {
			return gs.Players[idx]
		}
		return nil
	}
	if gs.CurrentPlayer != "" {
		if p := gs.PlayerByID(gs.CurrentPlayer); p != nil {
			return p
		}
	}
	if gs.CurrentPlayerName != "" {
		return gs.PlayerByName(gs.CurrentPlayerName)
	}
	return nil
}

// ActivePlayers counts seats that have not folded
func (gs *GameState) ActivePlayers() int {
	n := 0
	for _, p := range gs.Players {
		if p != nil && !p.Folded {
			n++
		}
	}
	return n
}
