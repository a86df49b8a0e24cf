package game

import (
	"testing"

	"github.com/duelforge/duel-server-go/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func discardEvents(Event) {}

func TestResolveAbilities_DoublePowerStacksMultiplicatively(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityDoublePower}},
		{ID: 2, Abilities: []catalog.AbilityKind{catalog.AbilityDoublePower}},
	}

	effects := resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.Equal(t, 4, effects.PowerMultiplier)
}

func TestResolveAbilities_GainPointsImmediate(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityGainPoints, catalog.AbilityGainPoints}},
	}

	resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.Equal(t, 4, actor.Score())
	assert.Equal(t, 0, opponent.Score())
}

func TestResolveAbilities_StealPointsAtZeroIsNoop(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityStealPoints}},
	}

	resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.Equal(t, 0, actor.Score())
	assert.Equal(t, 0, opponent.Score())
}

func TestResolveAbilities_StealPointsTransfers(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	opponent.AddScore(3)
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityStealPoints}},
	}

	resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.Equal(t, 1, actor.Score())
	assert.Equal(t, 2, opponent.Score())
}

func TestResolveAbilities_BlockIdempotent(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityBlockNextAttack, catalog.AbilityBlockNextAttack}},
		{ID: 2, Abilities: []catalog.AbilityKind{catalog.AbilityBlockNextAttack}},
	}

	effects := resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.True(t, effects.BlockOpponent)
	assert.Equal(t, 1, effects.PowerMultiplier)
}

func TestResolveAbilities_DrawExtraStacksAdditively(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 1, Abilities: []catalog.AbilityKind{catalog.AbilityDrawExtraCard}},
		{ID: 2, Abilities: []catalog.AbilityKind{catalog.AbilityDrawExtraCard, catalog.AbilityDrawExtraCard}},
	}

	effects := resolveAbilities("m", actor, opponent, played, discardEvents)
	assert.Equal(t, 3, effects.ExtraDraws)
}

func TestResolveAbilities_EmitsTriggerEvents(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}
	played := []catalog.Card{
		{ID: 7, Abilities: []catalog.AbilityKind{catalog.AbilityGainPoints, catalog.AbilityDoublePower}},
	}

	var events []Event
	resolveAbilities("m", actor, opponent, played, func(evt Event) { events = append(events, evt) })

	assert.Len(t, events, 2)
	assert.Equal(t, EventAbilityTriggered, events[0].Type)
	assert.Equal(t, "a", events[0].PlayerID)
	assert.Equal(t, "b", events[0].TargetID)
	assert.Equal(t, catalog.AbilityGainPoints, events[0].Ability)
	assert.Equal(t, 7, events[0].CardID)
	assert.Equal(t, catalog.AbilityDoublePower, events[1].Ability)
}

func TestResolveAbilities_NoCardsNoEffects(t *testing.T) {
	actor := &PlayerState{ID: "a"}
	opponent := &PlayerState{ID: "b"}

	effects := resolveAbilities("m", actor, opponent, nil, discardEvents)
	assert.Equal(t, EffectRecord{PowerMultiplier: 1}, effects)
}
