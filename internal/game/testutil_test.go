package game

import (
	"sort"

	"github.com/duelforge/duel-server-go/internal/catalog"
)

// testRegistry is a minimal in-memory CardRegistry for engine tests.
type testRegistry struct {
	cards map[int]catalog.Card
	order []int
}

func newTestRegistry(cards ...catalog.Card) *testRegistry {
	r := &testRegistry{cards: make(map[int]catalog.Card, len(cards))}
	for _, c := range cards {
		r.cards[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	sort.Ints(r.order)
	return r
}

func (r *testRegistry) Lookup(id int) (catalog.Card, bool) {
	c, ok := r.cards[id]
	return c, ok
}

func (r *testRegistry) BuildDeck(size int) []int {
	if len(r.order) == 0 || size <= 0 {
		return nil
	}
	deck := make([]int, 0, size)
	for i := 0; i < size; i++ {
		deck = append(deck, r.order[i%len(r.order)])
	}
	return deck
}

// collectEvents funnels selected event types from the bus into buffered
// channels so tests can wait on them without publishing re-entrantly.
func collectEvents(bus *EventBus, types ...EventType) map[EventType]chan Event {
	channels := make(map[EventType]chan Event, len(types))
	for _, eventType := range types {
		ch := make(chan Event, 16)
		channels[eventType] = ch
		bus.SubscribeTyped(eventType, func(evt Event) {
			ch <- evt
		})
	}
	return channels
}
