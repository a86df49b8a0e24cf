package game

import (
	"github.com/duelforge/duel-server-go/internal/catalog"
)

// basePower sums the power values of the played cards. Registry clamping
// already guarantees non-negative power, but the guard stays local too.
func basePower(played []catalog.Card) int {
	total := 0
	for _, card := range played {
		if card.Power > 0 {
			total += card.Power
		}
	}
	return total
}

// resolveCombat converts one side's base power and effect record into the
// final power this turn. The opponent's block negates this side's power in the
// same turn it was played, regardless of multiplier.
func resolveCombat(base int, own EffectRecord, opponentBlocks bool) int {
	multiplier := own.PowerMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	final := base * multiplier
	if opponentBlocks {
		final = 0
	}
	return final
}
