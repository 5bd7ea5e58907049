package gamestate

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Suit represents a card suit. The zero value is an unknown suit.
type Suit int

const (
	NoSuit Suit = iota
	Spades
	Hearts
	Diamonds
	Clubs
)

// String returns the single letter code of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// Rank represents a card rank. The zero value is an unknown rank.
type Rank int

const (
	NoRank Rank = 0
	Two    Rank = iota + 1
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return fmt.Sprintf("%d", int(r))
	case r == Ten:
		return "T"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// IsHigh reports whether the rank is one of A, K, Q, J
func (r Rank) IsHigh() bool {
	return r >= Jack
}

// Card is a single playing card as reported by the server
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Valid reports whether both rank and suit are known
func (c Card) Valid() bool {
	return c.Rank != NoRank && c.Suit != NoSuit
}

// String returns the card code, e.g. "Ah" or "Td"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseRank parses a rank token such as "A", "10", "T" or "ace"
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "2":
		return Two, nil
	case "3":
		return Three, nil
	case "4":
		return Four, nil
	case "5":
		return Five, nil
	case "6":
		return Six, nil
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10", "T", "TEN":
		return Ten, nil
	case "J", "JACK":
		return Jack, nil
	case "Q", "QUEEN":
		return Queen, nil
	case "K", "KING":
		return King, nil
	case "A", "1", "ACE":
		return Ace, nil
	}
	return NoRank, fmt.Errorf("invalid rank %q", s)
}

// ParseSuit parses a suit token such as "h", "hearts" or "♥"
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "spade", "spades", "♠":
		return Spades, nil
	case "h", "heart", "hearts", "♥":
		return Hearts, nil
	case "d", "diamond", "diamonds", "♦":
		return Diamonds, nil
	case "c", "club", "clubs", "♣":
		return Clubs, nil
	}
	return NoSuit, fmt.Errorf("invalid suit %q", s)
}

// ParseCard parses a card code like "Ah", "10s", "Td" or "K♥"
func ParseCard(code string) (Card, error) {
	code = strings.TrimSpace(code)
	runes := []rune(code)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", code)
	}

	rank, err := ParseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", code, err)
	}
	suit, err := ParseSuit(string(runes[len(runes)-1:]))
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", code, err)
	}
	return NewCard(rank, suit), nil
}

// MustParseCards parses card codes and panics on error. Intended for tests.
func MustParseCards(codes ...string) []Card {
	cards := make([]Card, len(codes))
	for i, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			panic(err)
		}
		cards[i] = c
	}
	return cards
}

// FormatCards joins card codes with spaces
func FormatCards(cards []Card) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// MarshalJSON encodes a card as its code string
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

var numericFaceRanks = map[string]string{"11": "J", "12": "Q", "13": "K", "14": "A"}

// UnmarshalJSON accepts either a code string or a {"rank","suit"} object.
// Cards that cannot be parsed decode to the zero Card rather than failing the
// whole snapshot.
func (c *Card) UnmarshalJSON(data []byte) error {
	*c = Card{}

	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		if parsed, err := ParseCard(code); err == nil {
			*c = parsed
		}
		return nil
	}

	var obj struct {
		Rank jsoniter.RawMessage `json:"rank"`
		Suit string              `json:"suit"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("card must be a string or object: %w", err)
	}

	// rank may be a string ("A") or a number (14, 10)
	rankToken := strings.Trim(string(obj.Rank), `"`)
	if face, ok := numericFaceRanks[rankToken]; ok {
		rankToken = face
	}
	rank, err := ParseRank(rankToken)
	if err != nil {
		return nil
	}
	suit, err := ParseSuit(obj.Suit)
	if err != nil {
		return nil
	}
	*c = NewCard(rank, suit)
	return nil
}
