package model

import "fmt"

// Rank is the rock-paper-scissors value of a card
type Rank string

const (
	RankRock     Rank = "rock"
	RankPaper    Rank = "paper"
	RankScissors Rank = "scissors"
)

// beats maps each rank to the rank it defeats
var beats = map[Rank]Rank{
	RankRock:     RankScissors,
	RankPaper:    RankRock,
	RankScissors: RankPaper,
}

// Valid reports whether r is one of the three known ranks
func (r Rank) Valid() bool {
	_, ok := beats[r]
	return ok
}

// Beats reports whether r defeats other
func (r Rank) Beats(other Rank) bool {
	target, ok := beats[r]
	return ok && target == other
}

// Title returns the display name of the rank
func (r Rank) Title() string {
	switch r {
	case RankRock:
		return "Rock"
	case RankPaper:
		return "Paper"
	case RankScissors:
		return "Scissors"
	default:
		return string(r)
	}
}

// ResolveRanks compares two ranks. It returns the winning rank, or tie=true
// when the ranks are equal.
func ResolveRanks(a, b Rank) (winner Rank, tie bool) {
	if a == b {
		return "", true
	}
	if a.Beats(b) {
		return a, false
	}
	return b, false
}

// Effect is a card's secondary damage modifier
type Effect string

const (
	EffectNone          Effect = "none"
	EffectPowerAttack   Effect = "power_attack"
	EffectCounterDamage Effect = "counter_damage_5"
)

// Valid reports whether e is a known effect
func (e Effect) Valid() bool {
	switch e {
	case EffectNone, EffectPowerAttack, EffectCounterDamage:
		return true
	}
	return false
}

// Card is an immutable rank/effect pair. Only its value matters.
type Card struct {
	Rank   Rank   `json:"rank"`
	Effect Effect `json:"effect"`
}

// Valid reports whether the card exists in the catalog
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Effect.Valid()
}

func (c Card) String() string {
	if c.Effect == EffectNone || c.Effect == "" {
		return c.Rank.Title()
	}
	return fmt.Sprintf("%s (%s)", c.Rank.Title(), c.Effect)
}

var catalog = []Card{
	{RankRock, EffectNone},
	{RankPaper, EffectNone},
	{RankScissors, EffectNone},
	{RankRock, EffectPowerAttack},
	{RankPaper, EffectPowerAttack},
	{RankScissors, EffectPowerAttack},
	{RankRock, EffectCounterDamage},
	{RankPaper, EffectCounterDamage},
	{RankScissors, EffectCounterDamage},
}

// Catalog returns a copy of the nine cards hands are drawn from
func Catalog() []Card {
	out := make([]Card, len(catalog))
	copy(out, catalog)
	return out
}
