// Package decision turns free-form agent output into typed poker actions and
// repairs poor folds with simple hand-strength heuristics.
package decision

import (
	"fmt"

	"github.com/lox/pokeragent/internal/gamestate"
)

// Action represents the type of action a player can take
type Action int

const (
	// Fold discards hand and forfeits interest in the pot
	Fold Action = iota
	// Check passes action with no bet
	Check
	// Call matches the current bet
	Call
	// Raise increases the current bet
	Raise
)

// String returns the lowercase wire name of an action
func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	default:
		return "unknown"
	}
}

// DefaultRaiseAmount is used when the agent asks to bet without naming an amount
const DefaultRaiseAmount = 20

// Decision is a validated poker action. Amount is only meaningful for Raise.
// AllIn marks a raise of every remaining chip; Resolve fills in the amount.
type Decision struct {
	Action Action
	Amount int
	AllIn  bool
}

// FoldDecision is the safest fallback
func FoldDecision() Decision { return Decision{Action: Fold} }

// CheckDecision passes without betting
func CheckDecision() Decision { return Decision{Action: Check} }

// CallDecision matches the current bet
func CallDecision() Decision { return Decision{Action: Call} }

// RaiseDecision raises to amount
func RaiseDecision(amount int) Decision { return Decision{Action: Raise, Amount: amount} }

// AllInDecision raises with all remaining chips
func AllInDecision() Decision { return Decision{Action: Raise, AllIn: true} }

func (d Decision) String() string {
	switch {
	case d.Action == Raise && d.AllIn:
		return "raise all-in"
	case d.Action == Raise:
		return fmt.Sprintf("raise %d", d.Amount)
	default:
		return d.Action.String()
	}
}

// Resolve converts an all-in decision into a concrete raise amount using the
// player's remaining chips, or the server's max raise when the player is
// unknown. Other decisions are returned unchanged; non-raise actions carry no
// amount.
func (d Decision) Resolve(state *gamestate.GameState, player *gamestate.PlayerState) Decision {
	if d.Action != Raise {
		return Decision{Action: d.Action}
	}
	if !d.AllIn {
		return d
	}

	amount := 0
	if player != nil {
		amount = player.Chips + player.CurrentBet
	}
	if amount <= 0 && state != nil {
		amount = state.MaxRaise
	}
	if amount <= 0 {
		// nothing known about the stack; let the server clamp it
		amount = DefaultRaiseAmount
	}
	return Decision{Action: Raise, Amount: amount, AllIn: true}
}
