package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duelforge/duel-server-go/internal/catalog"
	"github.com/duelforge/duel-server-go/internal/config"
	"github.com/duelforge/duel-server-go/internal/game"
)

type stubRegistry struct {
	cards map[int]catalog.Card
	order []int
}

func newStubRegistry(cards ...catalog.Card) *stubRegistry {
	reg := &stubRegistry{cards: make(map[int]catalog.Card, len(cards))}
	for _, card := range cards {
		reg.cards[card.ID] = card
		reg.order = append(reg.order, card.ID)
	}
	return reg
}

func (r *stubRegistry) Lookup(id int) (catalog.Card, bool) {
	card, ok := r.cards[id]
	return card, ok
}

func (r *stubRegistry) BuildDeck(size int) []int {
	deck := make([]int, size)
	for i := range deck {
		deck[i] = r.order[i%len(r.order)]
	}
	return deck
}

func testRules() game.Config {
	return game.Config{
		DeckSize:         10,
		MaxEnergy:        6,
		TotalTurns:       1,
		StartingHandSize: 1,
		TurnDuration:     250 * time.Millisecond,
		TickInterval:     5 * time.Millisecond,
		Seed:             1,
	}
}

func startTestServer(t *testing.T, rules game.Config, registry game.CardRegistry) (*httptest.Server, string) {
	t.Helper()
	logger := zap.NewNop()
	hub := NewHub(game.NewManager(logger), registry, rules, nil, logger)
	srv := NewServer(config.ServerConfig{Address: ":0"}, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// waitFor reads frames until one of the wanted type arrives, skipping
// interleaved frames of other types.
func waitFor(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestServer_FullMatchOverWebSocket(t *testing.T) {
	registry := newStubRegistry(catalog.Card{ID: 1, Name: "Free Striker", Cost: 0, Power: 2})
	_, url := startTestServer(t, testRules(), registry)

	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, Message{Type: msgJoin, PlayerID: "alice"})
	waitFor(t, alice, msgWaiting)

	send(t, bob, Message{Type: msgJoin, PlayerID: "bob"})

	started := waitFor(t, alice, msgMatchStarted)
	require.NotEmpty(t, started.MatchID)
	var startedData matchStartedData
	require.NoError(t, json.Unmarshal(started.Data, &startedData))
	assert.Equal(t, []string{"alice", "bob"}, startedData.Players)
	assert.Equal(t, 1, startedData.TotalTurns)
	waitFor(t, bob, msgMatchStarted)

	waitFor(t, alice, string(game.EventTurnStarted))
	hand := waitFor(t, alice, msgHandUpdate)
	var handData handUpdateData
	require.NoError(t, json.Unmarshal(hand.Data, &handData))
	assert.Contains(t, handData.Hand, 1)

	send(t, alice, Message{Type: msgSubmitCards, Data: json.RawMessage(`{"card_ids":[1]}`)})
	result := waitFor(t, alice, msgSubmitResult)
	var resultData submitResultData
	require.NoError(t, json.Unmarshal(result.Data, &resultData))
	assert.True(t, resultData.Accepted, "reason: %s", resultData.Reason)

	resolved := waitFor(t, bob, string(game.EventTurnResolved))
	var resolvedData turnResolvedData
	require.NoError(t, json.Unmarshal(resolved.Data, &resolvedData))
	require.Len(t, resolvedData.Results, 2)
	assert.Equal(t, 2, resolvedData.Results[0].FinalPower)

	ended := waitFor(t, alice, string(game.EventMatchEnded))
	var endedData matchEndedData
	require.NoError(t, json.Unmarshal(ended.Data, &endedData))
	assert.Equal(t, "alice", endedData.WinnerID)
	assert.Equal(t, 2, endedData.WinnerScore)
}

func TestServer_JoinValidation(t *testing.T) {
	registry := newStubRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})
	_, url := startTestServer(t, testRules(), registry)

	conn := dial(t, url)

	send(t, conn, Message{Type: msgJoin})
	errMsg := waitFor(t, conn, msgError)
	var errData errorData
	require.NoError(t, json.Unmarshal(errMsg.Data, &errData))
	assert.Contains(t, errData.Message, "player_id")

	// Submissions require a seated match.
	send(t, conn, Message{Type: msgSubmitCards, Data: json.RawMessage(`{"card_ids":[1]}`)})
	errMsg = waitFor(t, conn, msgError)
	require.NoError(t, json.Unmarshal(errMsg.Data, &errData))
	assert.Contains(t, errData.Message, "not in a match")

	// A second connection claiming the waiting player's id is refused.
	send(t, conn, Message{Type: msgJoin, PlayerID: "alice"})
	waitFor(t, conn, msgWaiting)
	dup := dial(t, url)
	send(t, dup, Message{Type: msgJoin, PlayerID: "alice"})
	waitFor(t, dup, msgError)
}

func TestServer_DisconnectAbortsMatch(t *testing.T) {
	registry := newStubRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})
	rules := testRules()
	rules.TurnDuration = 10 * time.Second
	_, url := startTestServer(t, rules, registry)

	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, Message{Type: msgJoin, PlayerID: "alice"})
	waitFor(t, alice, msgWaiting)
	send(t, bob, Message{Type: msgJoin, PlayerID: "bob"})
	waitFor(t, alice, string(game.EventTurnStarted))

	require.NoError(t, bob.Close())

	aborted := waitFor(t, alice, string(game.EventMatchAborted))
	var abortedData matchAbortedData
	require.NoError(t, json.Unmarshal(aborted.Data, &abortedData))
	assert.Equal(t, 1, abortedData.Turn)
}

func TestServer_UnknownMessageType(t *testing.T) {
	registry := newStubRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})
	_, url := startTestServer(t, testRules(), registry)

	conn := dial(t, url)
	send(t, conn, Message{Type: "dance"})
	errMsg := waitFor(t, conn, msgError)
	var errData errorData
	require.NoError(t, json.Unmarshal(errMsg.Data, &errData))
	assert.Contains(t, errData.Message, "unknown message type")
}
