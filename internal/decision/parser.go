package decision

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns are matched against the upper-cased reply. Portuguese synonyms are
// kept because agents are frequently prompted in Portuguese.
var (
	allInPattern = regexp.MustCompile(`\b(ALL[ -]?IN|TUDO)\b`)
	raisePattern = regexp.MustCompile(`\b(RAISE TO|RAISE|AUMENTAR|BET|APOSTAR|R)[ :]+(\d+)\b`)
	callPattern  = regexp.MustCompile(`\b(CALL|CHAMAR|PAGAR|COBRIR)\b`)
	checkPattern = regexp.MustCompile(`\b(CHECK|CHECAR|PASS|PASSAR|C)\b`)
	foldPattern  = regexp.MustCompile(`\b(FOLD|DESISTIR|PASSO|F)\b`)
)

var (
	looseRaiseWords = []string{"APOSTA", "RAISE", "AUMENTA", "BET"}
	looseCallWords  = []string{"CALL", "CHAMA", "PAGA", "IGUAL"}
	looseCheckWords = []string{"CHECK", "PASSA", "CHEC"}

	aggressiveWords   = []string{"STRONG", "GOOD", "AGGRESSIV", "FORTE", "BOM", "AGRESSIV"}
	conservativeWords = []string{"WEAK", "BAD", "WORSE", "FRACA", "RUIM", "PIOR", "SAIR"}
)

// Parse converts an agent reply into a Decision. It never fails: replies that
// match nothing resolve to Check, and any internal failure resolves to Fold.
func Parse(raw string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = FoldDecision()
		}
	}()

	normalized := strings.ToUpper(strings.TrimSpace(raw))

	if allInPattern.MatchString(normalized) {
		return AllInDecision()
	}

	for _, m := range raisePattern.FindAllStringSubmatch(normalized, -1) {
		amount, err := strconv.Atoi(m[2])
		if err == nil && amount > 0 {
			return RaiseDecision(amount)
		}
	}

	switch {
	case callPattern.MatchString(normalized):
		return CallDecision()
	case checkPattern.MatchString(normalized):
		return CheckDecision()
	case foldPattern.MatchString(normalized):
		return FoldDecision()
	}

	switch {
	case containsAny(normalized, looseRaiseWords):
		return RaiseDecision(DefaultRaiseAmount)
	case containsAny(normalized, looseCallWords):
		return CallDecision()
	case containsAny(normalized, looseCheckWords):
		return CheckDecision()
	}

	switch {
	case containsAny(normalized, aggressiveWords):
		return CallDecision()
	case containsAny(normalized, conservativeWords):
		return FoldDecision()
	default:
		return CheckDecision()
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
