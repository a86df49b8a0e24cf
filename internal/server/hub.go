package server

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/duelforge/duel-server-go/internal/game"
	"github.com/duelforge/duel-server-go/internal/repository"
)

type inboundMessage struct {
	client *Client
	msg    Message
}

// matchSession binds a running engine to the two connected clients and the
// per-match event bus.
type matchSession struct {
	engine  *game.MatchEngine
	bus     *game.EventBus
	clients map[string]*Client
}

// Hub seats joining players into matches and routes engine events back to
// their WebSocket connections. Registration and inbound traffic flow through
// channels into the run loop; session and per-client routing state is guarded
// by mu because match goroutines touch it when they finish.
type Hub struct {
	logger   *zap.Logger
	manager  *game.Manager
	registry game.CardRegistry
	rules    game.Config
	recorder *repository.Recorder

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	mu       sync.RWMutex
	clients  map[*Client]bool
	sessions map[string]*matchSession
	waiting  *Client
}

// NewHub creates a hub. recorder may be nil when persistence is disabled.
func NewHub(manager *game.Manager, registry game.CardRegistry, rules game.Config, recorder *repository.Recorder, logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		manager:    manager,
		registry:   registry,
		rules:      rules,
		recorder:   recorder,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 64),
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]*matchSession),
	}
}

// Run drives the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected")
		case client := <-h.unregister:
			h.dropClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.waiting = nil
}

// dropClient removes a disconnected client. A live match the client was
// seated in is aborted; the opponent learns via the MATCH_ABORTED event.
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if h.waiting == client {
		h.waiting = nil
	}

	var session *matchSession
	if client.matchID != "" {
		session = h.sessions[client.matchID]
		if session != nil {
			delete(session.clients, client.playerID)
		}
	}
	close(client.send)
	h.mu.Unlock()

	if session != nil {
		h.logger.Info("player disconnected, aborting match",
			zap.String("match_id", session.engine.ID()),
			zap.String("player_id", client.playerID),
		)
		session.engine.Abort()
	}
}

func (h *Hub) handleMessage(client *Client, msg Message) {
	switch msg.Type {
	case msgJoin:
		h.handleJoin(client, msg)
	case msgSubmitCards:
		h.handleSubmitCards(client, msg)
	default:
		h.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (h *Hub) handleJoin(client *Client, msg Message) {
	if msg.PlayerID == "" {
		h.sendError(client, "join requires a player_id")
		return
	}

	h.mu.Lock()
	if client.matchID != "" {
		h.mu.Unlock()
		h.sendError(client, "already in a match")
		return
	}
	client.playerID = msg.PlayerID
	h.mu.Unlock()

	if h.waiting == nil {
		h.waiting = client
		h.sendTo(client, msgWaiting, "", nil)
		return
	}
	if h.waiting == client || h.waiting.playerID == msg.PlayerID {
		h.sendError(client, "player id already waiting: "+msg.PlayerID)
		return
	}

	opponent := h.waiting
	h.waiting = nil
	h.startMatch(opponent, client)
}

func (h *Hub) handleSubmitCards(client *Client, msg Message) {
	h.mu.RLock()
	matchID := client.matchID
	playerID := client.playerID
	h.mu.RUnlock()

	if matchID == "" {
		h.sendError(client, "not in a match")
		return
	}

	var req submitCardsRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.sendError(client, "malformed submit_cards payload")
			return
		}
	}

	engine, err := h.manager.GetMatch(matchID)
	if err != nil {
		h.sendError(client, "match no longer live")
		return
	}

	result := engine.SubmitCards(playerID, req.CardIDs)
	h.sendTo(client, msgSubmitResult, matchID, submitResultData{
		Accepted: result.Status == game.SubmitAccepted,
		Reason:   result.Reason,
	})
}

// startMatch seats two clients into a fresh engine and launches its run loop.
func (h *Hub) startMatch(first, second *Client) {
	bus := game.NewEventBus()
	engine, err := h.manager.CreateMatch([]string{first.playerID, second.playerID}, h.registry, h.rules, bus)
	if err != nil {
		h.logger.Error("failed to create match", zap.Error(err))
		h.sendError(first, "failed to create match")
		h.sendError(second, "failed to create match")
		return
	}

	session := &matchSession{
		engine: engine,
		bus:    bus,
		clients: map[string]*Client{
			first.playerID:  first,
			second.playerID: second,
		},
	}

	h.mu.Lock()
	h.sessions[engine.ID()] = session
	first.matchID = engine.ID()
	second.matchID = engine.ID()
	h.mu.Unlock()

	if h.recorder != nil {
		h.recorder.Attach(bus)
	}
	bus.Subscribe(func(evt game.Event) { h.forwardEvent(evt) })

	started := matchStartedData{
		Players:    engine.Players(),
		TotalTurns: h.rules.TotalTurns,
		MaxEnergy:  h.rules.MaxEnergy,
	}
	h.sendTo(first, msgMatchStarted, engine.ID(), started)
	h.sendTo(second, msgMatchStarted, engine.ID(), started)
	h.sendHandUpdates(session, 0)

	go func() {
		if runErr := h.manager.RunMatch(context.Background(), engine); runErr != nil && runErr != game.ErrMatchAborted {
			h.logger.Error("match terminated abnormally",
				zap.String("match_id", engine.ID()),
				zap.Error(runErr),
			)
		}
		h.closeSession(engine.ID())
	}()
}

// closeSession tears down routing state once the match goroutine has finished.
// Clients stay connected and may join again.
func (h *Hub) closeSession(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[matchID]
	if !ok {
		return
	}
	delete(h.sessions, matchID)
	for _, client := range session.clients {
		client.matchID = ""
	}
}

// forwardEvent translates one engine event into client frames. Submission
// outcomes go only to the submitting player; everything else goes to both.
func (h *Hub) forwardEvent(evt game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[evt.MatchID]
	if !ok {
		return
	}

	switch evt.Type {
	case game.EventTurnStarted:
		h.broadcastLocked(session, string(evt.Type), evt.MatchID, turnStartedData{Turn: evt.Turn})
		h.sendHandUpdatesLocked(session, evt.Turn)
	case game.EventSubmissionAccepted, game.EventSubmissionRejected:
		if client, ok := session.clients[evt.PlayerID]; ok {
			h.enqueueTo(client, string(evt.Type), evt.MatchID, submitResultData{
				Accepted: evt.Type == game.EventSubmissionAccepted,
				Reason:   evt.Reason,
			})
		}
	case game.EventTurnResolved:
		results := make([]playerResultData, len(evt.Results))
		for i, r := range evt.Results {
			results[i] = playerResultData{
				PlayerID:   r.PlayerID,
				FinalPower: r.FinalPower,
				FinalScore: r.FinalScore,
			}
		}
		h.broadcastLocked(session, string(evt.Type), evt.MatchID, turnResolvedData{Turn: evt.Turn, Results: results})
		h.sendHandUpdatesLocked(session, evt.Turn)
	case game.EventAbilityTriggered:
		h.broadcastLocked(session, string(evt.Type), evt.MatchID, abilityTriggeredData{
			PlayerID: evt.PlayerID,
			TargetID: evt.TargetID,
			Ability:  string(evt.Ability),
			CardID:   evt.CardID,
		})
	case game.EventMatchEnded:
		h.broadcastLocked(session, string(evt.Type), evt.MatchID, matchEndedData{
			WinnerID:    evt.WinnerID,
			WinnerScore: evt.WinnerScore,
			LoserScore:  evt.LoserScore,
		})
	case game.EventMatchAborted:
		h.broadcastLocked(session, string(evt.Type), evt.MatchID, matchAbortedData{Turn: evt.Turn})
	}
}

func (h *Hub) sendHandUpdates(session *matchSession, turn int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendHandUpdatesLocked(session, turn)
}

// sendHandUpdatesLocked pushes each player's private state to its own
// connection. Callers hold h.mu.
func (h *Hub) sendHandUpdatesLocked(session *matchSession, turn int) {
	snap := session.engine.Snapshot()
	for _, player := range snap.Players {
		client, ok := session.clients[player.PlayerID]
		if !ok {
			continue
		}
		h.enqueueTo(client, msgHandUpdate, snap.MatchID, handUpdateData{
			Turn:     turn,
			Energy:   player.Energy,
			Score:    player.Score,
			Hand:     player.Hand,
			DeckSize: player.DeckSize,
		})
	}
}

// broadcastLocked sends one frame to every client in the session. Callers
// hold h.mu.
func (h *Hub) broadcastLocked(session *matchSession, msgType, matchID string, payload any) {
	for _, client := range session.clients {
		h.enqueueTo(client, msgType, matchID, payload)
	}
}

// enqueueTo encodes and queues a frame. Callers hold h.mu, which excludes the
// concurrent close of the client's send channel in dropClient.
func (h *Hub) enqueueTo(client *Client, msgType, matchID string, payload any) {
	frame, err := encodeMessage(msgType, matchID, payload)
	if err != nil {
		h.logger.Error("failed to encode outbound message",
			zap.String("type", msgType),
			zap.Error(err),
		)
		return
	}
	client.enqueue(frame)
}

// sendTo is enqueueTo for run-loop callers that do not hold h.mu.
func (h *Hub) sendTo(client *Client, msgType, matchID string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	h.enqueueTo(client, msgType, matchID, payload)
}

func (h *Hub) sendError(client *Client, message string) {
	h.sendTo(client, msgError, "", errorData{Message: message})
}
