package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mcoot/cardduel/internal/api/response"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// JSON reports whether machine-readable output was requested
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintGameMessage outputs one message received from the game server. JSON
// output uses the wire envelope, one message per line.
func (o *Output) PrintGameMessage(m protocol.Message, self model.PlayerID) {
	if o.JSON() {
		payload, err := protocol.Marshal(m)
		if err != nil {
			return
		}
		fmt.Fprintln(o.w, string(payload))
		return
	}

	switch v := m.(type) {
	case protocol.PlayerAssigned:
		fmt.Fprintf(o.w, "You are player %d.\n", v.ID)
	case protocol.PlayerUpdate:
		fmt.Fprintln(o.w, v.Message)
	case protocol.GameState:
		fmt.Fprintln(o.w, v.Message)
		if len(v.HPs) > 0 {
			fmt.Fprintln(o.w, formatHPs(v.HPs, v.Usernames, self))
		}
		if len(v.PlayerHand) > 0 {
			fmt.Fprintln(o.w, "Your hand:")
			for i, c := range v.PlayerHand {
				fmt.Fprintf(o.w, "  %d) %s\n", i+1, c)
			}
			fmt.Fprintln(o.w, "Type a card number to play it, 'win' to insta-win, 'quit' to leave.")
		}
		if v.RoundStatus == model.StatusEnteringUsername {
			fmt.Fprintln(o.w, "Type 'ready <name>' to play.")
		}
	case protocol.RoundResult:
		fmt.Fprintf(o.w, "%s played %s, %s played %s.\n",
			v.Usernames[model.Player0], v.Player0Choice,
			v.Usernames[model.Player1], v.Player1Choice)
		fmt.Fprintln(o.w, v.Message)
		fmt.Fprintln(o.w, formatHPs(v.HPs, v.Usernames, self))
	case protocol.Error:
		fmt.Fprintf(o.w, "Server: %s\n", v.Message)
	}
}

func formatHPs(hps map[model.PlayerID]int, names map[model.PlayerID]string, self model.PlayerID) string {
	parts := make([]string, 0, model.MaxPlayers)
	for _, id := range model.PlayerIDs() {
		name := names[id]
		if name == "" {
			name = model.DefaultUsername(id)
		}
		if id == self {
			name += " (you)"
		}
		parts = append(parts, fmt.Sprintf("%s %d HP", name, hps[id]))
	}
	return strings.Join(parts, " | ")
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.State:
		o.printState(v)
	case response.MatchList:
		o.printMatchList(v)
	case response.Match:
		o.printMatch(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printState(s response.State) {
	fmt.Fprintf(o.w, "Phase: %s\n", s.Phase)
	if s.GameStarted {
		fmt.Fprintf(o.w, "Round: %d\n", s.Round)
	}
	fmt.Fprintf(o.w, "Players (%d/%d):\n", s.Connected, model.MaxPlayers)
	for _, seat := range s.Seats {
		if !seat.Connected {
			fmt.Fprintf(o.w, "  %d: (empty)\n", seat.ID)
			continue
		}
		var flags []string
		if seat.Ready {
			flags = append(flags, "ready")
		}
		if seat.HasChosen {
			flags = append(flags, "chosen")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  %d: %s - %d HP%s\n", seat.ID, seat.Username, seat.HP, suffix)
	}
}

func (o *Output) printMatchList(l response.MatchList) {
	if len(l.Matches) == 0 {
		fmt.Fprintln(o.w, "No matches recorded.")
		return
	}
	for _, m := range l.Matches {
		fmt.Fprintf(o.w, "%s  %s  %s vs %s  %s\n",
			m.EndedAt.Local().Format("2006-01-02 15:04:05"), m.ID,
			m.Usernames[0], m.Usernames[1], describeOutcome(m))
	}
}

func (o *Output) printMatch(m response.Match) {
	fmt.Fprintf(o.w, "Match: %s\n", m.ID)
	fmt.Fprintf(o.w, "Players: %s vs %s\n", m.Usernames[0], m.Usernames[1])
	fmt.Fprintf(o.w, "Result: %s\n", describeOutcome(m))
	fmt.Fprintf(o.w, "Final HP: %d - %d\n", m.FinalHP[0], m.FinalHP[1])
	fmt.Fprintf(o.w, "Rounds: %d\n", m.Rounds)
	fmt.Fprintf(o.w, "Duration: %s\n", m.EndedAt.Sub(m.StartedAt).Round(time.Second))
}

func describeOutcome(m response.Match) string {
	switch m.Outcome {
	case model.OutcomeWin:
		return m.WinnerName + " won"
	case model.OutcomeDraw:
		return "draw"
	default:
		return string(m.Outcome)
	}
}
