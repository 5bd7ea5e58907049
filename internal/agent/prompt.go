package agent

import (
	"fmt"
	"math"
	"strings"

	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
)

// SystemPrompt describes the agent's role and the reply formats the parser
// understands
func SystemPrompt(name string, state *gamestate.GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced poker player named %s.\n\n", name)
	fmt.Fprintf(&b, "There are %d players at table %s.\n", len(state.Players), state.GameID)
	b.WriteString(`Your goal is to maximise your winnings using sound poker strategy.
Analyse the current situation carefully and make a strategic decision.

Consider:
1. The strength of your current hand
2. Your chances of improving with the community cards
3. The size of the pot and the current bet
4. Your position at the table and your chip stack
5. How the other players are behaving

Avoid folding constantly - check, call or raise when appropriate.
A successful strategy mixes conservative and aggressive play.

IMPORTANT: reply with ONLY one of the following:
- "FOLD" to give up the hand
- "CHECK" to pass without betting
- "CALL" to match the current bet
- "RAISE X" where X is the total bet, including the current bet

Do NOT include explanations or comments - only the action.`)
	return b.String()
}

// Context renders the table from the player's point of view
func Context(state *gamestate.GameState, me *gamestate.PlayerState) string {
	if me == nil {
		return "Your seat could not be found in the game. Decision: FOLD"
	}

	ownCards := "unknown"
	if len(me.Hand) > 0 {
		ownCards = gamestate.FormatCards(me.Hand)
	}

	chipRank := 1
	for _, p := range state.Players {
		if p != nil && p.Chips > me.Chips {
			chipRank++
		}
	}

	potOdds := "N/A"
	if state.CurrentBet > 0 {
		ratio := math.Round(float64(state.Pot)/float64(state.CurrentBet)*100) / 100
		potOdds = fmt.Sprintf("%g:1", ratio)
	}

	lastAction := state.LastAction
	if lastAction == "" {
		lastAction = "none"
	}

	lines := []string{
		fmt.Sprintf("Phase: %s", state.Phase),
		fmt.Sprintf("Pot: %d", state.Pot),
		fmt.Sprintf("Current bet: %d", state.CurrentBet),
		fmt.Sprintf("Your cards: %s", ownCards),
		fmt.Sprintf("Estimated hand strength: %s", decision.HandStrengthLabel(me.Hand)),
		fmt.Sprintf("Community cards: %s", gamestate.FormatCards(state.CommunityCards)),
		fmt.Sprintf("Your chips: %d", me.Chips),
		fmt.Sprintf("Your chip rank: %d of %d", chipRank, len(state.Players)),
		fmt.Sprintf("Your current bet: %d", me.CurrentBet),
		fmt.Sprintf("Pot odds: %s", potOdds),
		fmt.Sprintf("Last action: %s", lastAction),
		fmt.Sprintf("Last raise: %d", state.LastRaiseAmount),
		fmt.Sprintf("Active players: %d of %d", state.ActivePlayers(), len(state.Players)),
	}
	if state.MinRaise > 0 || state.MaxRaise > 0 {
		lines = append(lines, fmt.Sprintf("Raise range: %d to %d", state.MinRaise, state.MaxRaise))
	}

	lines = append(lines, "", "Players:")
	for _, p := range state.Players {
		if p == nil {
			continue
		}
		status := "active"
		if p.Folded {
			status = "folded"
		}
		lines = append(lines, fmt.Sprintf("%s: %d chips, bet %d, %s", p.Name, p.Chips, p.CurrentBet, status))
	}

	lines = append(lines, "", "Round history:")
	lines = append(lines, state.RoundHistory...)

	return strings.Join(lines, "\n")
}
