package game

import (
	"sync"
	"time"

	"github.com/duelforge/duel-server-go/internal/catalog"
)

// EventType indicates the category of a match lifecycle event.
type EventType string

const (
	EventTurnStarted        EventType = "TURN_STARTED"
	EventSubmissionAccepted EventType = "SUBMISSION_ACCEPTED"
	EventSubmissionRejected EventType = "SUBMISSION_REJECTED"
	EventTurnResolved       EventType = "TURN_RESOLVED"
	EventAbilityTriggered   EventType = "ABILITY_TRIGGERED"
	EventMatchEnded         EventType = "MATCH_ENDED"
	EventMatchAborted       EventType = "MATCH_ABORTED"
)

// PlayerResult captures one player's outcome for a resolved turn.
type PlayerResult struct {
	PlayerID   string
	FinalPower int
	FinalScore int
}

// Event represents a match lifecycle notification.
// Fields beyond Type/MatchID/Timestamp are populated per event type.
type Event struct {
	Type      EventType
	MatchID   string
	Timestamp time.Time

	Turn     int
	PlayerID string
	TargetID string
	Reason   string

	Ability catalog.AbilityKind
	CardID  int

	Results []PlayerResult

	WinnerID    string
	WinnerScore int
	LoserScore  int
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type
// filtering. One bus is injected per match engine; there is no process-wide
// subscriber list.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	if typedListeners, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typedListeners {
			listener.Callback(event)
		}
	}
}

func newEvent(eventType EventType, matchID string) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		Timestamp: time.Now(),
	}
}

// NewTurnStartedEvent creates a TURN_STARTED event.
func NewTurnStartedEvent(matchID string, turn int) Event {
	evt := newEvent(EventTurnStarted, matchID)
	evt.Turn = turn
	return evt
}

// NewSubmissionAcceptedEvent creates a SUBMISSION_ACCEPTED event.
func NewSubmissionAcceptedEvent(matchID, playerID string, turn int) Event {
	evt := newEvent(EventSubmissionAccepted, matchID)
	evt.PlayerID = playerID
	evt.Turn = turn
	return evt
}

// NewSubmissionRejectedEvent creates a SUBMISSION_REJECTED event.
func NewSubmissionRejectedEvent(matchID, playerID string, turn int, reason string) Event {
	evt := newEvent(EventSubmissionRejected, matchID)
	evt.PlayerID = playerID
	evt.Turn = turn
	evt.Reason = reason
	return evt
}

// NewTurnResolvedEvent creates a TURN_RESOLVED event.
func NewTurnResolvedEvent(matchID string, turn int, results []PlayerResult) Event {
	evt := newEvent(EventTurnResolved, matchID)
	evt.Turn = turn
	evt.Results = results
	return evt
}

// NewAbilityTriggeredEvent creates an ABILITY_TRIGGERED event.
func NewAbilityTriggeredEvent(matchID, actorID, targetID string, ability catalog.AbilityKind, cardID int) Event {
	evt := newEvent(EventAbilityTriggered, matchID)
	evt.PlayerID = actorID
	evt.TargetID = targetID
	evt.Ability = ability
	evt.CardID = cardID
	return evt
}

// NewMatchEndedEvent creates a MATCH_ENDED event. Turn carries the number of
// turns played.
func NewMatchEndedEvent(matchID, winnerID string, turn, winnerScore, loserScore int) Event {
	evt := newEvent(EventMatchEnded, matchID)
	evt.Turn = turn
	evt.WinnerID = winnerID
	evt.WinnerScore = winnerScore
	evt.LoserScore = loserScore
	return evt
}

// NewMatchAbortedEvent creates a MATCH_ABORTED event.
func NewMatchAbortedEvent(matchID string, turn int) Event {
	evt := newEvent(EventMatchAborted, matchID)
	evt.Turn = turn
	return evt
}
