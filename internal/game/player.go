package game

import (
	"math/rand"
)

// PlayerState owns one player's deck, hand, energy and score for the lifetime
// of a single match. All mutation happens under the owning engine's lock; the
// struct itself carries no synchronization.
type PlayerState struct {
	ID     string
	deck   []int // draw end is the back of the slice
	hand   []int
	energy int
	score  int
}

// NewPlayerState creates a player with an independently shuffled copy of the
// deck template. The shared match-scoped rng keeps shuffles reproducible under
// a fixed seed.
func NewPlayerState(id string, deckTemplate []int, rng *rand.Rand) *PlayerState {
	deck := make([]int, len(deckTemplate))
	copy(deck, deckTemplate)
	// Fisher-Yates, uniform in-place permutation.
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return &PlayerState{
		ID:   id,
		deck: deck,
		hand: make([]int, 0, len(deck)),
	}
}

// DrawCards moves up to n ids from the draw end of the deck into the hand, in
// order. A short deck draws what remains; drawing never fails.
func (p *PlayerState) DrawCards(n int) []int {
	if n > len(p.deck) {
		n = len(p.deck)
	}
	if n <= 0 {
		return nil
	}
	drawn := make([]int, n)
	for i := 0; i < n; i++ {
		top := len(p.deck) - 1
		drawn[i] = p.deck[top]
		p.deck = p.deck[:top]
	}
	p.hand = append(p.hand, drawn...)
	return drawn
}

// GainEnergy adds amount to the player's energy, clamped to [0, max].
func (p *PlayerState) GainEnergy(amount, max int) {
	p.energy += amount
	if p.energy > max {
		p.energy = max
	}
	if p.energy < 0 {
		p.energy = 0
	}
}

// SpendEnergy subtracts amount from the player's energy, floored at 0.
func (p *PlayerState) SpendEnergy(amount int) {
	p.energy -= amount
	if p.energy < 0 {
		p.energy = 0
	}
}

// AddScore applies delta to the player's score, floored at 0.
func (p *PlayerState) AddScore(delta int) {
	p.score += delta
	if p.score < 0 {
		p.score = 0
	}
}

// HandContainsAll reports whether ids, counted with multiplicity, form a
// sub-multiset of the hand. The hand is not mutated.
func (p *PlayerState) HandContainsAll(ids []int) bool {
	working := make(map[int]int, len(p.hand))
	for _, id := range p.hand {
		working[id]++
	}
	for _, id := range ids {
		if working[id] == 0 {
			return false
		}
		working[id]--
	}
	return true
}

// RemoveCardsFromHand removes ids (with multiplicity) from the hand.
// Validate-then-apply: if any id is absent the hand is left completely
// unchanged and false is returned. Partial removal never occurs.
func (p *PlayerState) RemoveCardsFromHand(ids []int) bool {
	if !p.HandContainsAll(ids) {
		return false
	}
	remove := make(map[int]int, len(ids))
	for _, id := range ids {
		remove[id]++
	}
	kept := p.hand[:0]
	for _, id := range p.hand {
		if remove[id] > 0 {
			remove[id]--
			continue
		}
		kept = append(kept, id)
	}
	p.hand = kept
	return true
}

// Energy returns the player's current energy.
func (p *PlayerState) Energy() int { return p.energy }

// Score returns the player's current score.
func (p *PlayerState) Score() int { return p.score }

// DeckSize returns the number of cards left in the deck.
func (p *PlayerState) DeckSize() int { return len(p.deck) }

// HandSize returns the number of cards in the hand.
func (p *PlayerState) HandSize() int { return len(p.hand) }

// Hand returns a copy of the hand multiset.
func (p *PlayerState) Hand() []int {
	hand := make([]int, len(p.hand))
	copy(hand, p.hand)
	return hand
}
