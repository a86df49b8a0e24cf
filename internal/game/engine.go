package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/duelforge/duel-server-go/internal/catalog"
	"go.uber.org/zap"
)

// Phase represents the lifecycle phase of a match.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseCollectingSubmissions
	PhaseResolving
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "SETUP"
	case PhaseCollectingSubmissions:
		return "COLLECTING_SUBMISSIONS"
	case PhaseResolving:
		return "RESOLVING"
	case PhaseComplete:
		return "COMPLETE"
	case PhaseAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Configuration errors surfaced at match construction.
var (
	ErrWrongPlayerCount = errors.New("exactly two players are required")
	ErrDuplicatePlayer  = errors.New("player ids must be distinct")
	ErrEmptyCatalog     = errors.New("card catalog is empty")
	ErrMatchAborted     = errors.New("match aborted")
)

// Rejection reasons returned to submitters and carried on rejection events.
const (
	RejectWindowClosed       = "submission window closed"
	RejectUnknownPlayer      = "unknown player"
	RejectCardsNotInHand     = "cards not in hand"
	RejectUnknownCard        = "unknown card"
	RejectInsufficientEnergy = "insufficient energy"
)

// SubmitStatus is the outcome of a SubmitCards call.
type SubmitStatus int

const (
	SubmitAccepted SubmitStatus = iota
	SubmitRejected
)

// SubmitResult reports whether a submission was recorded and, on rejection,
// why.
type SubmitResult struct {
	Status SubmitStatus
	Reason string
}

// CardRegistry is the engine's read-only view of the card catalog.
type CardRegistry interface {
	Lookup(id int) (catalog.Card, bool)
	BuildDeck(size int) []int
}

// Config holds the match rules for one engine instance.
type Config struct {
	DeckSize         int
	MaxEnergy        int
	TotalTurns       int
	StartingHandSize int
	TurnDuration     time.Duration
	TickInterval     time.Duration
	Seed             int64 // 0 selects a time-based seed
}

func (c *Config) applyDefaults() {
	if c.TurnDuration <= 0 {
		c.TurnDuration = 30 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}
}

func (c Config) validate() error {
	if c.DeckSize <= 0 {
		return fmt.Errorf("deck size must be positive, got %d", c.DeckSize)
	}
	if c.MaxEnergy <= 0 {
		return fmt.Errorf("max energy must be positive, got %d", c.MaxEnergy)
	}
	if c.TotalTurns <= 0 {
		return fmt.Errorf("total turns must be positive, got %d", c.TotalTurns)
	}
	if c.StartingHandSize < 0 {
		return fmt.Errorf("starting hand size must not be negative, got %d", c.StartingHandSize)
	}
	return nil
}

// MatchEngine owns one match exclusively: it drives the turn loop, applies
// resolution results and emits lifecycle events on its injected bus. All state
// mutation is serialized by a single per-match lock; SubmitCards is safe to
// call from any goroutine.
type MatchEngine struct {
	id       string
	cfg      Config
	registry CardRegistry
	bus      *EventBus
	logger   *zap.Logger

	mu          sync.Mutex
	phase       Phase
	turn        int
	players     map[string]*PlayerState
	playerOrder []string
	collector   *submissionCollector

	abortCh   chan struct{}
	abortOnce sync.Once
}

// NewMatchEngine sets up a match for exactly two players: one shared deck
// template from the registry, independently shuffled per player, baseline
// energy and the starting hand drawn. Construction fails with a configuration
// error on a wrong player count or an empty catalog.
func NewMatchEngine(matchID string, playerIDs []string, registry CardRegistry, cfg Config, bus *EventBus, logger *zap.Logger) (*MatchEngine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(playerIDs) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrWrongPlayerCount, len(playerIDs))
	}
	if playerIDs[0] == playerIDs[1] {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, playerIDs[0])
	}

	template := registry.BuildDeck(cfg.DeckSize)
	if len(template) == 0 {
		return nil, ErrEmptyCatalog
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &MatchEngine{
		id:          matchID,
		cfg:         cfg,
		registry:    registry,
		bus:         bus,
		logger:      logger,
		phase:       PhaseSetup,
		players:     make(map[string]*PlayerState, 2),
		playerOrder: append([]string(nil), playerIDs...),
		abortCh:     make(chan struct{}),
	}

	for _, id := range m.playerOrder {
		p := NewPlayerState(id, template, rng)
		p.GainEnergy(1, cfg.MaxEnergy)
		p.DrawCards(cfg.StartingHandSize)
		m.players[id] = p
	}

	logger.Info("match initialized",
		zap.String("match_id", matchID),
		zap.Strings("players", m.playerOrder),
		zap.Int("deck_size", cfg.DeckSize),
		zap.Int("total_turns", cfg.TotalTurns),
		zap.Int64("seed", seed),
	)

	return m, nil
}

// ID returns the match id.
func (m *MatchEngine) ID() string { return m.id }

// Players returns the fixed turn order.
func (m *MatchEngine) Players() []string {
	return append([]string(nil), m.playerOrder...)
}

// Phase returns the current lifecycle phase.
func (m *MatchEngine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Run drives the turn loop until the match completes or aborts. Each turn:
// energy grant and draw, TurnStarted, submission window, resolution,
// TurnResolved; then winner computation and MatchEnded.
func (m *MatchEngine) Run(ctx context.Context) error {
	for turn := 1; turn <= m.cfg.TotalTurns; turn++ {
		if err := m.beginTurn(turn); err != nil {
			return err
		}
		m.bus.Publish(NewTurnStartedEvent(m.id, turn))

		subs, err := m.waitForSubmissions(ctx)
		if err != nil {
			return err
		}
		if err := m.resolveTurn(turn, subs); err != nil {
			return err
		}
	}
	return m.finish()
}

// beginTurn grants the per-turn energy and draw to every player and opens the
// submission window.
func (m *MatchEngine) beginTurn(turn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseAborted {
		return ErrMatchAborted
	}

	m.turn = turn
	for _, id := range m.playerOrder {
		p := m.players[id]
		p.GainEnergy(1, m.cfg.MaxEnergy)
		p.DrawCards(1)
	}
	m.collector = newSubmissionCollector(m.playerOrder, time.Now().Add(m.cfg.TurnDuration))
	m.phase = PhaseCollectingSubmissions

	m.logger.Debug("turn started",
		zap.String("match_id", m.id),
		zap.Int("turn", turn),
	)
	return nil
}

// waitForSubmissions polls the window once per scheduler tick until every
// player has submitted or the deadline is reached. Abort and context
// cancellation are observed at the same suspension point.
func (m *MatchEngine) waitForSubmissions(ctx context.Context) ([]Submission, error) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Abort()
			return nil, ErrMatchAborted
		case <-m.abortCh:
			return nil, ErrMatchAborted
		case <-ticker.C:
			m.mu.Lock()
			if m.phase == PhaseAborted {
				m.mu.Unlock()
				return nil, ErrMatchAborted
			}
			if m.collector.shouldClose(time.Now()) {
				subs := m.collector.close()
				m.phase = PhaseResolving
				m.mu.Unlock()
				return subs, nil
			}
			m.mu.Unlock()
		}
	}
}

// resolveTurn applies one closed window of submissions: hand/energy payment,
// ability resolution, combat, extra draws. Events gathered during resolution
// are published after the lock is released.
func (m *MatchEngine) resolveTurn(turn int, subs []Submission) error {
	m.mu.Lock()
	if m.phase == PhaseAborted {
		m.mu.Unlock()
		return ErrMatchAborted
	}

	var events []Event
	emit := func(evt Event) { events = append(events, evt) }

	// Pay costs and materialize played card lists, in fixed turn order. A
	// submission that no longer validates resolves as a pass; recording only
	// validated submissions makes that path unreachable in practice.
	played := make([][]catalog.Card, len(subs))
	for i, sub := range subs {
		p := m.players[sub.PlayerID]
		if len(sub.CardIDs) == 0 {
			continue
		}
		if !p.RemoveCardsFromHand(sub.CardIDs) {
			m.logger.Warn("recorded submission failed hand removal, resolving as pass",
				zap.String("match_id", m.id),
				zap.String("player_id", sub.PlayerID),
				zap.Int("turn", turn),
			)
			continue
		}
		cost := 0
		cards := make([]catalog.Card, 0, len(sub.CardIDs))
		for _, id := range sub.CardIDs {
			card, ok := m.registry.Lookup(id)
			if !ok {
				continue
			}
			cost += card.Cost
			cards = append(cards, card)
		}
		p.SpendEnergy(cost)
		played[i] = cards
	}

	// Ability effects, with immediate score side effects.
	effects := make([]EffectRecord, len(subs))
	for i, sub := range subs {
		actor := m.players[sub.PlayerID]
		opponent := m.players[m.opponentOf(sub.PlayerID)]
		effects[i] = resolveAbilities(m.id, actor, opponent, played[i], emit)
	}

	// Combat: a player's block negates the power the other player deals this
	// same turn.
	results := make([]PlayerResult, len(subs))
	for i, sub := range subs {
		opponentBlocks := effects[1-i].BlockOpponent
		final := resolveCombat(basePower(played[i]), effects[i], opponentBlocks)
		p := m.players[sub.PlayerID]
		p.AddScore(final)
		results[i] = PlayerResult{
			PlayerID:   sub.PlayerID,
			FinalPower: final,
		}
	}

	// Extra draws after combat, then record final scores.
	for i, sub := range subs {
		p := m.players[sub.PlayerID]
		if effects[i].ExtraDraws > 0 {
			p.DrawCards(effects[i].ExtraDraws)
		}
		results[i].FinalScore = p.Score()
	}

	m.collector = nil
	m.mu.Unlock()

	for _, evt := range events {
		m.bus.Publish(evt)
	}
	m.bus.Publish(NewTurnResolvedEvent(m.id, turn, results))
	return nil
}

// finish computes the winner (highest score, ties broken by the fixed turn
// order) and completes the match.
func (m *MatchEngine) finish() error {
	m.mu.Lock()
	if m.phase == PhaseAborted {
		m.mu.Unlock()
		return ErrMatchAborted
	}

	winner := m.playerOrder[0]
	loser := m.playerOrder[1]
	if m.players[loser].Score() > m.players[winner].Score() {
		winner, loser = loser, winner
	}
	winnerScore := m.players[winner].Score()
	loserScore := m.players[loser].Score()
	turn := m.turn
	m.phase = PhaseComplete
	m.mu.Unlock()

	m.logger.Info("match ended",
		zap.String("match_id", m.id),
		zap.String("winner_id", winner),
		zap.Int("winner_score", winnerScore),
		zap.Int("loser_score", loserScore),
	)
	m.bus.Publish(NewMatchEndedEvent(m.id, winner, turn, winnerScore, loserScore))
	return nil
}

// SubmitCards validates and records a submission for the current turn,
// overwriting any prior submission from the same player. Rejection leaves all
// state untouched; an invalid call never displaces a previously recorded valid
// submission.
func (m *MatchEngine) SubmitCards(playerID string, cardIDs []int) SubmitResult {
	m.mu.Lock()
	result := m.submitLocked(playerID, cardIDs)
	turn := m.turn
	m.mu.Unlock()

	if result.Status == SubmitAccepted {
		m.bus.Publish(NewSubmissionAcceptedEvent(m.id, playerID, turn))
	} else {
		m.bus.Publish(NewSubmissionRejectedEvent(m.id, playerID, turn, result.Reason))
	}
	return result
}

func (m *MatchEngine) submitLocked(playerID string, cardIDs []int) SubmitResult {
	if m.phase != PhaseCollectingSubmissions || m.collector == nil || m.collector.closed {
		return SubmitResult{Status: SubmitRejected, Reason: RejectWindowClosed}
	}
	p, ok := m.players[playerID]
	if !ok {
		return SubmitResult{Status: SubmitRejected, Reason: RejectUnknownPlayer}
	}
	if !p.HandContainsAll(cardIDs) {
		return SubmitResult{Status: SubmitRejected, Reason: RejectCardsNotInHand}
	}
	cost := 0
	for _, id := range cardIDs {
		card, ok := m.registry.Lookup(id)
		if !ok {
			return SubmitResult{Status: SubmitRejected, Reason: RejectUnknownCard}
		}
		cost += card.Cost
	}
	if cost > p.Energy() {
		return SubmitResult{Status: SubmitRejected, Reason: RejectInsufficientEnergy}
	}

	if !m.collector.record(Submission{
		PlayerID: playerID,
		CardIDs:  append([]int(nil), cardIDs...),
		Explicit: true,
	}) {
		return SubmitResult{Status: SubmitRejected, Reason: RejectWindowClosed}
	}
	return SubmitResult{Status: SubmitAccepted}
}

// Abort transitions to the terminal Aborted phase from any non-terminal phase.
// The single MatchAborted event is the only notification emitted afterwards.
func (m *MatchEngine) Abort() {
	m.abortOnce.Do(func() {
		m.mu.Lock()
		if m.phase == PhaseComplete || m.phase == PhaseAborted {
			m.mu.Unlock()
			return
		}
		m.phase = PhaseAborted
		m.collector = nil
		turn := m.turn
		m.mu.Unlock()

		close(m.abortCh)
		m.logger.Info("match aborted",
			zap.String("match_id", m.id),
			zap.Int("turn", turn),
		)
		m.bus.Publish(NewMatchAbortedEvent(m.id, turn))
	})
}

func (m *MatchEngine) opponentOf(playerID string) string {
	if m.playerOrder[0] == playerID {
		return m.playerOrder[1]
	}
	return m.playerOrder[0]
}

// PlayerSnapshot captures one player's visible state for external use.
type PlayerSnapshot struct {
	PlayerID string
	Energy   int
	Score    int
	DeckSize int
	HandSize int
	Hand     []int
}

// MatchSnapshot captures a consistent view of the match.
type MatchSnapshot struct {
	MatchID string
	Phase   Phase
	Turn    int
	Players []PlayerSnapshot
}

// Snapshot returns a consistent copy of the match state. Hand contents are
// included; the transport layer is responsible for only showing a hand to its
// owner.
func (m *MatchEngine) Snapshot() MatchSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MatchSnapshot{
		MatchID: m.id,
		Phase:   m.phase,
		Turn:    m.turn,
		Players: make([]PlayerSnapshot, 0, len(m.playerOrder)),
	}
	for _, id := range m.playerOrder {
		p := m.players[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			PlayerID: id,
			Energy:   p.Energy(),
			Score:    p.Score(),
			DeckSize: p.DeckSize(),
			HandSize: p.HandSize(),
			Hand:     p.Hand(),
		})
	}
	return snap
}
