// Package agent connects the game loop to a language model: it renders the
// table as text, asks the model for a move and normalizes the reply.
package agent

import (
	"context"
)

// Generator produces a natural-language reply for a game context. It is a
// single blocking call with no streaming.
type Generator interface {
	Generate(ctx context.Context, gameContext, systemPrompt string) (string, error)
}

// Identity exposes the agent's display name
type Identity interface {
	Name() string
}

// DefaultName is used when the agent has no configured name
const DefaultName = "PokerAgent"

// StaticIdentity is an Identity with a fixed name
type StaticIdentity string

// Name returns the configured name, or DefaultName when empty
func (s StaticIdentity) Name() string {
	if s == "" {
		return DefaultName
	}
	return string(s)
}

// StaticGenerator always replies with the same text, for offline play and tests
type StaticGenerator struct {
	Reply string
}

// Generate returns the fixed reply
func (g StaticGenerator) Generate(ctx context.Context, gameContext, systemPrompt string) (string, error) {
	return g.Reply, nil
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, gameContext, systemPrompt string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, gameContext, systemPrompt string) (string, error) {
	return f(ctx, gameContext, systemPrompt)
}
