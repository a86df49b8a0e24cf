package catalog

import (
	"fmt"
	"sort"
)

// AbilityKind identifies a card ability. The set is closed: tags are parsed
// once at catalog load time and unknown tags never reach the engine.
type AbilityKind string

const (
	AbilityGainPoints      AbilityKind = "GainPoints"
	AbilityStealPoints     AbilityKind = "StealPoints"
	AbilityBlockNextAttack AbilityKind = "BlockNextAttack"
	AbilityDoublePower     AbilityKind = "DoublePower"
	AbilityDrawExtraCard   AbilityKind = "DrawExtraCard"
)

// ParseAbilityKind maps a raw catalog tag to its AbilityKind.
// Returns false for tags outside the closed set.
func ParseAbilityKind(tag string) (AbilityKind, bool) {
	switch AbilityKind(tag) {
	case AbilityGainPoints, AbilityStealPoints, AbilityBlockNextAttack,
		AbilityDoublePower, AbilityDrawExtraCard:
		return AbilityKind(tag), true
	default:
		return "", false
	}
}

// Card is an immutable card definition. Cost and power are never negative;
// values below zero in the source data are clamped at load time.
type Card struct {
	ID        int
	Name      string
	Cost      int
	Power     int
	Abilities []AbilityKind
}

// Registry holds the loaded card catalog and builds decks from it.
// It is populated once and treated as immutable afterwards.
type Registry struct {
	cards map[int]Card
	order []int // ascending card ids, used for deck cycling
}

// NewRegistry builds a registry from card definitions.
// Duplicate ids are a configuration error.
func NewRegistry(cards []Card) (*Registry, error) {
	r := &Registry{
		cards: make(map[int]Card, len(cards)),
		order: make([]int, 0, len(cards)),
	}
	for _, c := range cards {
		if _, dup := r.cards[c.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %d (%s)", c.ID, c.Name)
		}
		if c.Cost < 0 {
			c.Cost = 0
		}
		if c.Power < 0 {
			c.Power = 0
		}
		r.cards[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	sort.Ints(r.order)
	return r, nil
}

// Lookup returns the card definition for the given id.
func (r *Registry) Lookup(id int) (Card, bool) {
	c, ok := r.cards[id]
	return c, ok
}

// BuildDeck returns an ordered sequence of card ids of the requested size,
// cycling through the catalog when size exceeds it. An empty catalog yields
// an empty deck.
func (r *Registry) BuildDeck(size int) []int {
	if len(r.order) == 0 || size <= 0 {
		return nil
	}
	deck := make([]int, 0, size)
	for i := 0; i < size; i++ {
		deck = append(deck, r.order[i%len(r.order)])
	}
	return deck
}

// Size returns the number of distinct cards in the catalog.
func (r *Registry) Size() int {
	return len(r.cards)
}

// Cards returns all card definitions in ascending id order.
func (r *Registry) Cards() []Card {
	cards := make([]Card, 0, len(r.order))
	for _, id := range r.order {
		cards = append(cards, r.cards[id])
	}
	return cards
}
