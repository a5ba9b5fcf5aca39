package response

import (
	"time"

	"github.com/mcoot/cardduel/internal/model"
)

// Health is the body of the health check
type Health struct {
	Status string `json:"status"`
}

// Seat represents one seat of the table. Hands and pending choices are
// never exposed.
type Seat struct {
	ID        model.PlayerID `json:"id"`
	Connected bool           `json:"connected"`
	Username  string         `json:"username"`
	HP        int            `json:"hp"`
	Ready     bool           `json:"ready"`
	HasChosen bool           `json:"has_chosen"`
}

// State is the response for GET /state
type State struct {
	Phase       model.Phase               `json:"phase"`
	GameStarted bool                      `json:"game_started"`
	Round       int                       `json:"round"`
	Connected   int                       `json:"connected"`
	Seats       []Seat                    `json:"seats"`
	HPs         map[model.PlayerID]int    `json:"hps"`
	Usernames   map[model.PlayerID]string `json:"usernames"`
}

// StateFromSnapshot converts a controller snapshot
func StateFromSnapshot(snap model.Snapshot) State {
	st := State{
		Phase:       snap.Phase,
		GameStarted: snap.GameStarted,
		Round:       snap.Round,
		Seats:       make([]Seat, 0, len(snap.Seats)),
		HPs:         make(map[model.PlayerID]int, len(snap.Seats)),
		Usernames:   make(map[model.PlayerID]string, len(snap.Seats)),
	}
	for _, s := range snap.Seats {
		if s.Connected {
			st.Connected++
		}
		st.Seats = append(st.Seats, Seat(s))
		st.HPs[s.ID] = s.HP
		st.Usernames[s.ID] = s.Username
	}
	return st
}

// Match represents a recorded match
type Match struct {
	ID         string         `json:"id"`
	Usernames  [2]string      `json:"usernames"`
	FinalHP    [2]int         `json:"final_hp"`
	Winner     model.PlayerID `json:"winner"`
	WinnerName string         `json:"winner_name,omitempty"`
	Outcome    model.Outcome  `json:"outcome"`
	Rounds     int            `json:"rounds"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
}

// MatchFromModel converts a model.MatchSummary
func MatchFromModel(m *model.MatchSummary) Match {
	return Match{
		ID:         string(m.ID),
		Usernames:  m.Usernames,
		FinalHP:    m.FinalHP,
		Winner:     m.Winner,
		WinnerName: m.WinnerName(),
		Outcome:    m.Outcome,
		Rounds:     m.Rounds,
		StartedAt:  m.StartedAt,
		EndedAt:    m.EndedAt,
	}
}

// MatchList is the response for GET /matches
type MatchList struct {
	Matches []Match `json:"matches"`
}

// MatchListFromModel converts a slice of summaries, newest first
func MatchListFromModel(ms []*model.MatchSummary) MatchList {
	out := MatchList{Matches: make([]Match, 0, len(ms))}
	for _, m := range ms {
		out.Matches = append(out.Matches, MatchFromModel(m))
	}
	return out
}
