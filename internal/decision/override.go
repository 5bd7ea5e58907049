package decision

import (
	"github.com/lox/pokeragent/internal/gamestate"
)

// Rule names a fold override, for logging
type Rule string

const (
	RuleNone         Rule = ""
	RuleFreeCheck    Rule = "free-check"
	RuleStrongHand   Rule = "strong-hand-small-bet"
	RulePreflopHand  Rule = "preflop-starting-hand"
	RulePotCommitted Rule = "pot-committed"
)

// Refine replaces a Fold with a better action when a simple heuristic says
// folding is clearly wrong. Non-fold decisions are returned unchanged.
func Refine(d Decision, state *gamestate.GameState, player *gamestate.PlayerState) Decision {
	refined, _ := RefineWithRule(d, state, player)
	return refined
}

// RefineWithRule is Refine that also reports which override fired
func RefineWithRule(d Decision, state *gamestate.GameState, player *gamestate.PlayerState) (Decision, Rule) {
	if d.Action != Fold || state == nil {
		return d, RuleNone
	}

	bet := state.CurrentBet
	if bet == 0 {
		return CheckDecision(), RuleFreeCheck
	}
	if player == nil {
		return d, RuleNone
	}

	chips := player.Chips

	// bet <= chips/N written without division so odd stacks compare exactly
	if HasStrongHand(player.Hand, state.CommunityCards) && bet*10 <= chips {
		return CallDecision(), RuleStrongHand
	}

	if state.Phase == gamestate.PhasePreflop &&
		(HasPair(player.Hand) || HasHighCard(player.Hand)) &&
		bet*5 <= chips {
		return CallDecision(), RulePreflopHand
	}

	if (state.Phase == gamestate.PhaseTurn || state.Phase == gamestate.PhaseRiver) &&
		state.Pot*2 > chips &&
		bet*20 <= chips {
		return CallDecision(), RulePotCommitted
	}

	return d, RuleNone
}
