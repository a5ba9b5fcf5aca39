// Package protocol defines the messages exchanged between the duel server
// and its clients, and the length-prefixed framing that carries them over a
// byte stream.
package protocol

import "github.com/mcoot/cardduel/internal/model"

// Type is the wire tag of a message
type Type string

const (
	TypePlayerID     Type = "player_id"
	TypeReady        Type = "ready"
	TypeChoice       Type = "choice"
	TypeInstaWin     Type = "insta_win"
	TypePlayerUpdate Type = "player_update"
	TypeGameState    Type = "game_state"
	TypeRoundResult  Type = "round_result"
	TypeError        Type = "error"
)

// Message is one logical protocol message. The set of implementations is
// closed: every Type above has exactly one struct.
type Message interface {
	MessageType() Type
}

// PlayerAssigned tells a client which seat it occupies (server→client)
type PlayerAssigned struct {
	ID model.PlayerID `json:"id"`
}

// Ready signals a player wants to start, optionally naming itself (client→server)
type Ready struct {
	Username string `json:"username,omitempty"`
}

// Choice submits the card played this round (client→server)
type Choice struct {
	Choice model.Card `json:"choice"`
}

// InstaWin forces the sender to win the current game (client→server)
type InstaWin struct{}

// PlayerUpdate announces a readiness change to all clients (server→all)
type PlayerUpdate struct {
	Message   string                    `json:"message"`
	Usernames map[model.PlayerID]string `json:"usernames"`
}

// GameState carries the table state. PlayerHand is specific to the
// recipient. (server→client)
type GameState struct {
	Message     string                    `json:"message"`
	HPs         map[model.PlayerID]int    `json:"hps"`
	RoundStatus model.RoundStatus         `json:"round_status"`
	PlayerHand  []model.Card              `json:"player_hand"`
	Usernames   map[model.PlayerID]string `json:"usernames"`
}

// RoundResult reveals both cards and the outcome; every client receives the
// same payload (server→all)
type RoundResult struct {
	Message       string                    `json:"message"`
	Player0Choice model.Card                `json:"player0_choice"`
	Player1Choice model.Card                `json:"player1_choice"`
	RPSWinner     model.PlayerID            `json:"rps_winner"` // model.NoPlayer on a tie
	HPs           map[model.PlayerID]int    `json:"hps"`
	RoundStatus   model.RoundStatus         `json:"round_status"`
	GameOver      bool                      `json:"game_over"`
	Usernames     map[model.PlayerID]string `json:"usernames"`
}

// Error reports a condition such as a full server (server→client)
type Error struct {
	Message string `json:"message"`
}

func (PlayerAssigned) MessageType() Type { return TypePlayerID }
func (Ready) MessageType() Type          { return TypeReady }
func (Choice) MessageType() Type         { return TypeChoice }
func (InstaWin) MessageType() Type       { return TypeInstaWin }
func (PlayerUpdate) MessageType() Type   { return TypePlayerUpdate }
func (GameState) MessageType() Type      { return TypeGameState }
func (RoundResult) MessageType() Type    { return TypeRoundResult }
func (Error) MessageType() Type          { return TypeError }

// FromClient reports whether clients are allowed to send messages of type t
func FromClient(t Type) bool {
	switch t {
	case TypeReady, TypeChoice, TypeInstaWin:
		return true
	}
	return false
}
