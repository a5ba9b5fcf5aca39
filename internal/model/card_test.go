package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRanks(t *testing.T) {
	tests := []struct {
		name       string
		a, b       Rank
		wantWinner Rank
		wantTie    bool
	}{
		{"rock beats scissors", RankRock, RankScissors, RankRock, false},
		{"scissors loses to rock", RankScissors, RankRock, RankRock, false},
		{"paper beats rock", RankPaper, RankRock, RankPaper, false},
		{"rock loses to paper", RankRock, RankPaper, RankPaper, false},
		{"scissors beats paper", RankScissors, RankPaper, RankScissors, false},
		{"paper loses to scissors", RankPaper, RankScissors, RankScissors, false},
		{"rock ties", RankRock, RankRock, "", true},
		{"paper ties", RankPaper, RankPaper, "", true},
		{"scissors ties", RankScissors, RankScissors, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, tie := ResolveRanks(tt.a, tt.b)
			assert.Equal(t, tt.wantTie, tie)
			assert.Equal(t, tt.wantWinner, winner)
		})
	}
}

func TestRankBeatsIsAntisymmetric(t *testing.T) {
	ranks := []Rank{RankRock, RankPaper, RankScissors}
	for _, a := range ranks {
		for _, b := range ranks {
			if a == b {
				assert.False(t, a.Beats(b), "%s must not beat itself", a)
				continue
			}
			assert.NotEqual(t, a.Beats(b), b.Beats(a), "exactly one of %s/%s must win", a, b)
		}
	}
}

func TestCatalog(t *testing.T) {
	cards := Catalog()
	assert.Len(t, cards, 9)

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.True(t, c.Valid(), "catalog card %v must be valid", c)
		assert.False(t, seen[c], "duplicate catalog card %v", c)
		seen[c] = true
	}

	// Mutating the copy must not leak into later calls
	cards[0] = Card{Rank: "lizard", Effect: EffectNone}
	assert.Equal(t, Card{RankRock, EffectNone}, Catalog()[0])
}

func TestCardValid(t *testing.T) {
	assert.True(t, Card{RankPaper, EffectCounterDamage}.Valid())
	assert.False(t, Card{"spock", EffectNone}.Valid())
	assert.False(t, Card{RankRock, "explode"}.Valid())
	assert.False(t, Card{}.Valid())
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "Rock", Card{RankRock, EffectNone}.String())
	assert.Equal(t, "Paper (power_attack)", Card{RankPaper, EffectPowerAttack}.String())
}

func TestPlayerTakeDamageClampsAtZero(t *testing.T) {
	p := NewPlayer(Player1, 15)
	p.TakeDamage(10)
	assert.Equal(t, 5, p.HP)
	p.TakeDamage(20)
	assert.Equal(t, 0, p.HP)
	assert.True(t, p.KnockedOut())
}

func TestPlayerReset(t *testing.T) {
	p := NewPlayer(Player0, 100)
	choice := Card{RankRock, EffectNone}
	p.Username = "Ann"
	p.HP = 40
	p.Ready = true
	p.Hand = []Card{choice}
	p.Choice = &choice

	p.Reset(100)

	assert.Equal(t, "Player 0", p.Username)
	assert.Equal(t, 100, p.HP)
	assert.False(t, p.Ready)
	assert.Nil(t, p.Hand)
	assert.Nil(t, p.Choice)
}

func TestPlayerIDOpponent(t *testing.T) {
	assert.Equal(t, Player1, Player0.Opponent())
	assert.Equal(t, Player0, Player1.Opponent())
	assert.False(t, NoPlayer.Valid())
}
