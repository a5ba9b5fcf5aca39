package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventPlayerReady   EventType = "player_ready"
	EventGameStarted   EventType = "game_started"
	EventRoundResolved EventType = "round_resolved"
	EventGameOver      EventType = "game_over"
)

// Event is published to spectators whenever the table changes
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  *PlayerID `json:"player_id,omitempty"` // The player who triggered the event, if any
	Payload   any       `json:"payload,omitempty"`
}

// PlayerPayload contains data for joined, left and ready events
type PlayerPayload struct {
	Username string `json:"username"`
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	Usernames [2]string `json:"usernames"`
	HP        [2]int    `json:"hp"`
}

// RoundResolvedPayload contains data for round resolved events.
// Cards are only published after both were revealed.
type RoundResolvedPayload struct {
	Round   int      `json:"round"`
	Cards   [2]Card  `json:"cards"`
	Winner  PlayerID `json:"winner"`
	HP      [2]int   `json:"hp"`
	Message string   `json:"message"`
}

// GameOverPayload contains data for game over events
type GameOverPayload struct {
	Match MatchSummary `json:"match"`
}
