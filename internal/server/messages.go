package server

import "encoding/json"

// Message is the JSON envelope exchanged over a WebSocket connection.
type Message struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"player_id,omitempty"`
	MatchID  string          `json:"match_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Client-to-server message types.
const (
	msgJoin        = "join"
	msgSubmitCards = "submit_cards"
)

// Server-to-client message types. Match lifecycle notifications reuse the
// engine's event type names verbatim.
const (
	msgWaiting      = "waiting"
	msgMatchStarted = "match_started"
	msgHandUpdate   = "hand_update"
	msgSubmitResult = "submit_result"
	msgError        = "error"
)

type submitCardsRequest struct {
	CardIDs []int `json:"card_ids"`
}

type matchStartedData struct {
	Players    []string `json:"players"`
	TotalTurns int      `json:"total_turns"`
	MaxEnergy  int      `json:"max_energy"`
}

// handUpdateData is private per-player state, sent only to its owner.
type handUpdateData struct {
	Turn     int   `json:"turn"`
	Energy   int   `json:"energy"`
	Score    int   `json:"score"`
	Hand     []int `json:"hand"`
	DeckSize int   `json:"deck_size"`
}

type submitResultData struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
}

type turnStartedData struct {
	Turn int `json:"turn"`
}

type playerResultData struct {
	PlayerID   string `json:"player_id"`
	FinalPower int    `json:"final_power"`
	FinalScore int    `json:"final_score"`
}

type turnResolvedData struct {
	Turn    int                `json:"turn"`
	Results []playerResultData `json:"results"`
}

type abilityTriggeredData struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id,omitempty"`
	Ability  string `json:"ability"`
	CardID   int    `json:"card_id"`
}

type matchEndedData struct {
	WinnerID    string `json:"winner_id"`
	WinnerScore int    `json:"winner_score"`
	LoserScore  int    `json:"loser_score"`
}

type matchAbortedData struct {
	Turn int `json:"turn"`
}

// encodeMessage builds the wire form of an envelope with the given payload.
func encodeMessage(msgType, matchID string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(Message{
		Type:    msgType,
		MatchID: matchID,
		Data:    raw,
	})
}
