package model

import "time"

// MatchID uniquely identifies a recorded match
type MatchID string

// Outcome describes how a match ended
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeDraw      Outcome = "draw"
	OutcomeAbandoned Outcome = "abandoned" // A player disconnected mid-game
)

// MatchSummary is the audit record of a finished or abandoned game.
// It is never used to restore game state.
type MatchSummary struct {
	ID        MatchID   `json:"id"`
	Usernames [2]string `json:"usernames"`
	FinalHP   [2]int    `json:"final_hp"`
	Winner    PlayerID  `json:"winner"` // NoPlayer for draws and abandoned games
	Outcome   Outcome   `json:"outcome"`
	Rounds    int       `json:"rounds"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// WinnerName returns the winner's username, or "" if nobody won
func (m *MatchSummary) WinnerName() string {
	if !m.Winner.Valid() {
		return ""
	}
	return m.Usernames[m.Winner]
}
