package agent

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/lox/pokeragent/internal/decision"
	"github.com/lox/pokeragent/internal/gamestate"
)

// Decider turns a snapshot into a move: it prompts the generator, parses the
// reply and applies the override rules. It never fails; anything that goes
// wrong becomes a fold that is still subject to the overrides.
type Decider struct {
	generator Generator
	identity  Identity
	logger    *log.Logger
}

// NewDecider creates a decider
func NewDecider(generator Generator, identity Identity, logger *log.Logger) *Decider {
	return &Decider{
		generator: generator,
		identity:  identity,
		logger:    logger.WithPrefix("decider"),
	}
}

// Decide picks a move for the player in state
func (d *Decider) Decide(ctx context.Context, state *gamestate.GameState, player *gamestate.PlayerState) decision.Decision {
	parsed := d.generate(ctx, state, player)

	refined, rule := decision.RefineWithRule(parsed, state, player)
	if rule != decision.RuleNone {
		d.logger.Info("Overriding decision", "from", parsed, "to", refined, "rule", rule)
	}
	return refined
}

func (d *Decider) generate(ctx context.Context, state *gamestate.GameState, player *gamestate.PlayerState) (result decision.Decision) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Decision generation panicked", "panic", r)
			result = decision.FoldDecision()
		}
	}()

	if state == nil {
		return decision.FoldDecision()
	}

	reply, err := d.generator.Generate(ctx, Context(state, player), SystemPrompt(d.identity.Name(), state))
	if err != nil {
		d.logger.Error("Generator failed, folding", "error", err)
		return decision.FoldDecision()
	}

	parsed := decision.Parse(reply)
	d.logger.Debug("Parsed reply", "reply", reply, "decision", parsed)
	return parsed
}
