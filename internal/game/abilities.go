package game

import (
	"github.com/duelforge/duel-server-go/internal/catalog"
)

// EffectRecord accumulates the ability effects of one side's played cards for
// a single turn.
type EffectRecord struct {
	PowerMultiplier int  // multiplicative, never below 1
	BlockOpponent   bool // negates the opponent's power this same turn
	ExtraDraws      int  // additive
}

// resolveAbilities walks the played cards in submission order and, within a
// card, its ability tags in declaration order. Score-affecting abilities apply
// immediately to actor/opponent; the rest accumulate into the returned record.
// Every resolved ability is reported through emit as an ABILITY_TRIGGERED
// event; the caller decides when the events leave its critical section.
func resolveAbilities(matchID string, actor, opponent *PlayerState, played []catalog.Card, emit func(Event)) EffectRecord {
	effects := EffectRecord{PowerMultiplier: 1}

	for _, card := range played {
		for _, ability := range card.Abilities {
			switch ability {
			case catalog.AbilityGainPoints:
				actor.AddScore(2)
			case catalog.AbilityStealPoints:
				if opponent.Score() > 0 {
					opponent.AddScore(-1)
					actor.AddScore(1)
				}
			case catalog.AbilityBlockNextAttack:
				// Idempotent across repeats.
				effects.BlockOpponent = true
			case catalog.AbilityDoublePower:
				effects.PowerMultiplier *= 2
			case catalog.AbilityDrawExtraCard:
				effects.ExtraDraws++
			}
			emit(NewAbilityTriggeredEvent(matchID, actor.ID, opponent.ID, ability, card.ID))
		}
	}

	return effects
}
