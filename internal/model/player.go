package model

import (
	"fmt"
	"slices"
)

// PlayerID is the seat a connection occupies: 0 or 1
type PlayerID int

const (
	Player0 PlayerID = 0
	Player1 PlayerID = 1

	// NoPlayer marks a tied round on the wire
	NoPlayer PlayerID = -1
)

// MaxPlayers is the number of seats at the table
const MaxPlayers = 2

// PlayerIDs lists both seats in order
func PlayerIDs() []PlayerID {
	return []PlayerID{Player0, Player1}
}

// Valid reports whether id names a seat
func (id PlayerID) Valid() bool {
	return id == Player0 || id == Player1
}

// Opponent returns the other seat
func (id PlayerID) Opponent() PlayerID {
	return 1 - id
}

// DefaultUsername is the name a seat has until its player picks one
func DefaultUsername(id PlayerID) string {
	return fmt.Sprintf("Player %d", id)
}

// Player is the mutable per-seat game state. Owned by the duel controller;
// never shared outside its lock.
type Player struct {
	ID       PlayerID
	Username string
	HP       int
	Ready    bool
	Hand     []Card
	Choice   *Card // Set at most once per round
}

// NewPlayer creates a player in its game-start state
func NewPlayer(id PlayerID, initialHP int) *Player {
	p := &Player{ID: id}
	p.Reset(initialHP)
	return p
}

// Reset restores the game-start defaults
func (p *Player) Reset(initialHP int) {
	p.Username = DefaultUsername(p.ID)
	p.HP = initialHP
	p.Ready = false
	p.Hand = nil
	p.Choice = nil
}

// HasInHand reports whether the card's value is in the current hand
func (p *Player) HasInHand(c Card) bool {
	return slices.Contains(p.Hand, c)
}

// TakeDamage lowers HP by n, clamped at zero
func (p *Player) TakeDamage(n int) {
	p.HP = max(0, p.HP-n)
}

// KnockedOut reports whether the player has no health left
func (p *Player) KnockedOut() bool {
	return p.HP <= 0
}
