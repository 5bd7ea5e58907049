package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies gateway failures so callers can branch without inspecting
// message text
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork is a transport failure: no response was received
	KindNetwork
	// KindHTTP is a non-2xx response that matched no more specific kind
	KindHTTP
	// KindProtocol is a response whose shape could not be understood
	KindProtocol
	// KindAlreadyInGame means the player is seated in another game; GameID
	// carries the conflicting game when the server reports it
	KindAlreadyInGame
	// KindGameFull means the game has no free seat
	KindGameFull
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindProtocol:
		return "protocol"
	case KindAlreadyInGame:
		return "already-in-game"
	case KindGameFull:
		return "game-full"
	default:
		return "unknown"
	}
}

// Error is returned by every Gateway operation
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Body    string
	GameID  string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a gateway error, or KindUnknown
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindUnknown
}

// ConflictingGameID returns the game id carried by an already-in-game error
func ConflictingGameID(err error) string {
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Kind == KindAlreadyInGame {
		return gerr.GameID
	}
	return ""
}

// classify maps a server error message onto a Kind. This is the only place
// where message text is inspected.
func classify(status int, message string) Kind {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "already in an active game"):
		return KindAlreadyInGame
	case strings.Contains(msg, "game is full"):
		return KindGameFull
	case status == 0:
		return KindNetwork
	default:
		return KindHTTP
	}
}
