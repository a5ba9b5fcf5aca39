package duel

import (
	"fmt"

	"github.com/mcoot/cardduel/internal/dependencies/random"
	"github.com/mcoot/cardduel/internal/model"
)

// RoundOutcome is the damage produced by one pair of cards
type RoundOutcome struct {
	Winner         model.PlayerID // model.NoPlayer on a tie
	DamageToLoser  int
	DamageToWinner int
}

// Tie reports whether neither rank won
func (o RoundOutcome) Tie() bool {
	return o.Winner == model.NoPlayer
}

// ResolveRound compares the two cards, indexed by player, and computes the
// damage each side takes. It does not touch health.
func ResolveRound(cfg Config, cards [2]model.Card) RoundOutcome {
	winningRank, tie := model.ResolveRanks(cards[model.Player0].Rank, cards[model.Player1].Rank)
	if tie {
		return RoundOutcome{Winner: model.NoPlayer}
	}

	winner := model.Player1
	if winningRank == cards[model.Player0].Rank {
		winner = model.Player0
	}
	loser := winner.Opponent()

	out := RoundOutcome{Winner: winner, DamageToLoser: cfg.BaseDamage}
	if cards[winner].Effect == model.EffectPowerAttack {
		out.DamageToLoser = cfg.PowerAttackDamage
	}
	if cards[loser].Effect == model.EffectCounterDamage {
		out.DamageToWinner = cfg.CounterDamage
	}
	return out
}

// roundMessage describes a resolved round
func roundMessage(o RoundOutcome, usernames [2]string) string {
	if o.Tie() {
		return "It's a tie! No damage dealt."
	}
	winnerName := usernames[o.Winner]
	loserName := usernames[o.Winner.Opponent()]
	msg := fmt.Sprintf("%s wins the round! %s takes %d damage.", winnerName, loserName, o.DamageToLoser)
	if o.DamageToWinner > 0 {
		msg += fmt.Sprintf(" %s also takes %d counter-damage.", winnerName, o.DamageToWinner)
	}
	return msg
}

// gameOverMessage describes the end of a game given the final health of
// both players. The second result is false while both are still standing.
func gameOverMessage(hp [2]int, usernames [2]string) (string, model.PlayerID, bool) {
	down0, down1 := hp[0] <= 0, hp[1] <= 0
	switch {
	case down0 && down1:
		return "Both players knocked out! It's a draw!", model.NoPlayer, true
	case down0:
		return usernames[model.Player1] + " wins the game!", model.Player1, true
	case down1:
		return usernames[model.Player0] + " wins the game!", model.Player0, true
	}
	return "", model.NoPlayer, false
}

// DealHand draws size distinct cards from the catalog
func DealHand(r random.Random, size int) []model.Card {
	catalog := model.Catalog()
	indexes := r.Sample(len(catalog), size)
	hand := make([]model.Card, len(indexes))
	for i, idx := range indexes {
		hand[i] = catalog[idx]
	}
	return hand
}
