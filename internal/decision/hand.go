package decision

import (
	"slices"

	"github.com/lox/pokeragent/internal/gamestate"
)

// validCards drops cards the server sent in a shape we could not parse
func validCards(cards []gamestate.Card) []gamestate.Card {
	out := make([]gamestate.Card, 0, len(cards))
	for _, c := range cards {
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// HasPair reports a two-card hand of equal rank
func HasPair(hand []gamestate.Card) bool {
	hand = validCards(hand)
	return len(hand) == 2 && hand[0].Rank == hand[1].Rank
}

// HasHighCard reports whether any card is A, K, Q or J
func HasHighCard(hand []gamestate.Card) bool {
	for _, c := range validCards(hand) {
		if c.Rank.IsHigh() {
			return true
		}
	}
	return false
}

// HasFlushDraw reports four or more cards of one suit
func HasFlushDraw(cards []gamestate.Card) bool {
	counts := make(map[gamestate.Suit]int)
	for _, c := range validCards(cards) {
		counts[c.Suit]++
		if counts[c.Suit] >= 4 {
			return true
		}
	}
	return false
}

// HasStraightDraw reports four or more consecutive distinct ranks
func HasStraightDraw(cards []gamestate.Card) bool {
	ranks := make([]int, 0, len(cards))
	for _, c := range validCards(cards) {
		ranks = append(ranks, int(c.Rank))
	}
	slices.Sort(ranks)
	ranks = slices.Compact(ranks)

	run, best := 1, 0
	if len(ranks) > 0 {
		best = 1
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1]+1 {
			run++
			best = max(best, run)
		} else {
			run = 1
		}
	}
	return best >= 4
}

// HasDrawPotential reports a flush or straight draw among hand and board
func HasDrawPotential(hand, community []gamestate.Card) bool {
	all := append(slices.Clone(hand), community...)
	return HasFlushDraw(all) || HasStraightDraw(all)
}

// HasStrongHand is a coarse made-hand check: a pocket pair, a pair with the
// board, or an A/K/Q with a draw once the flop is out.
func HasStrongHand(hand, community []gamestate.Card) bool {
	hand = validCards(hand)
	community = validCards(community)
	if len(hand) < 2 {
		return false
	}

	if hand[0].Rank == hand[1].Rank {
		return true
	}

	for _, h := range hand {
		for _, c := range community {
			if h.Rank == c.Rank {
				return true
			}
		}
	}

	if (hand[0].Rank >= gamestate.Queen || hand[1].Rank >= gamestate.Queen) && len(community) >= 3 {
		return HasDrawPotential(hand, community)
	}
	return false
}

// HandStrengthLabel gives a short description of a two-card starting hand
func HandStrengthLabel(hand []gamestate.Card) string {
	hand = validCards(hand)
	if len(hand) != 2 {
		return "unknown"
	}
	a, b := hand[0], hand[1]
	switch {
	case a.Rank == b.Rank:
		return "strong - pocket pair"
	case a.Rank.IsHigh() || b.Rank.IsHigh():
		return "medium - high card"
	case a.Suit == b.Suit:
		return "flush potential"
	case a.Rank-b.Rank == 1 || b.Rank-a.Rank == 1:
		return "straight potential"
	default:
		return "weak"
	}
}
