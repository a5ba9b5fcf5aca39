package model

// Phase is the server-side state of the round state machine
type Phase string

const (
	PhaseWaitingForPlayers Phase = "waiting_for_players" // Seats filling, players readying up
	PhaseWaitingForChoices Phase = "waiting_for_choices" // Hands dealt, collecting choices
	PhaseRoundResolving    Phase = "round_resolving"     // Result shown, next round pending
	PhaseGameOver          Phase = "game_over"           // Final result shown, reset pending
)

// RoundStatus is the client-facing status sent with game_state and round_result
type RoundStatus string

const (
	StatusEnteringUsername  RoundStatus = "entering_username"
	StatusWaitingForPlayers RoundStatus = "waiting_for_players"
	StatusWaitingForChoices RoundStatus = "waiting_for_choices"
	StatusRoundOver         RoundStatus = "round_over"
	StatusGameOver          RoundStatus = "game_over"
)

// SeatSnapshot is the public view of one seat. Hands and pending choices
// are deliberately absent.
type SeatSnapshot struct {
	ID        PlayerID `json:"id"`
	Connected bool     `json:"connected"`
	Username  string   `json:"username"`
	HP        int      `json:"hp"`
	Ready     bool     `json:"ready"`
	HasChosen bool     `json:"has_chosen"`
}

// Snapshot is a point-in-time public view of the table
type Snapshot struct {
	Phase       Phase          `json:"phase"`
	GameStarted bool           `json:"game_started"`
	Round       int            `json:"round"`
	Seats       []SeatSnapshot `json:"seats"`
}
