package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Decision
	}{
		{name: "explicit raise", input: "RAISE 150", want: RaiseDecision(150)},
		{name: "lowercase raise with colon", input: "raise: 40", want: RaiseDecision(40)},
		{name: "raise to", input: "I will RAISE TO 300", want: RaiseDecision(300)},
		{name: "bet synonym", input: "bet 60", want: RaiseDecision(60)},
		{name: "portuguese raise", input: "Vou AUMENTAR 80", want: RaiseDecision(80)},
		{name: "apostar", input: "apostar 25", want: RaiseDecision(25)},
		{name: "fold", input: "fold", want: FoldDecision()},
		{name: "desistir", input: "Desistir", want: FoldDecision()},
		{name: "all in", input: "ALL IN", want: AllInDecision()},
		{name: "all-in lowercase", input: "going all-in!", want: AllInDecision()},
		{name: "tudo", input: "vou com tudo", want: AllInDecision()},
		{name: "all in beats raise", input: "raise 50, actually all in", want: AllInDecision()},
		{name: "call", input: "CALL", want: CallDecision()},
		{name: "pagar", input: "pagar", want: CallDecision()},
		{name: "check", input: "check", want: CheckDecision()},
		{name: "passar is a check", input: "passar", want: CheckDecision()},
		{name: "call wins over fold", input: "fold or call? call", want: CallDecision()},
		{name: "zero raise falls through to loose raise", input: "RAISE 0", want: RaiseDecision(DefaultRaiseAmount)},
		{name: "raise without amount", input: "I want to raise here", want: RaiseDecision(DefaultRaiseAmount)},
		{name: "loose call wording", input: "vou igualar", want: CallDecision()},
		{name: "loose check wording", input: "checking", want: CheckDecision()},
		{name: "aggressive sentiment", input: "blah blah good hand", want: CallDecision()},
		{name: "portuguese aggressive sentiment", input: "mão forte", want: CallDecision()},
		{name: "conservative sentiment", input: "this looks weak", want: FoldDecision()},
		{name: "empty", input: "", want: CheckDecision()},
		{name: "whitespace", input: "   \n", want: CheckDecision()},
		{name: "gibberish", input: "lorem ipsum", want: CheckDecision()},
		{name: "overflowing amount", input: "RAISE 99999999999999999999999", want: RaiseDecision(DefaultRaiseAmount)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParseNeverRaisesByDefault(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "?", "hmm", "I am not sure", "…"} {
		assert.NotEqual(t, Raise, Parse(input).Action, "input %q", input)
	}
}

func TestDecisionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fold", FoldDecision().String())
	assert.Equal(t, "raise 150", RaiseDecision(150).String())
	assert.Equal(t, "raise all-in", AllInDecision().String())
}
