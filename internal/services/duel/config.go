package duel

import "time"

// Config holds the game rules and pacing
type Config struct {
	InitialHP         int
	BaseDamage        int
	PowerAttackDamage int
	CounterDamage     int
	HandSize          int

	// ResultDelay is how long a round result stays visible before the next
	// round or the post-game reset is announced
	ResultDelay time.Duration

	// AllowInstaWin enables the insta_win override
	AllowInstaWin bool

	// StrictHand rejects choices of cards the player was not dealt
	StrictHand bool
}

// DefaultConfig returns the standard rule set
func DefaultConfig() Config {
	return Config{
		InitialHP:         100,
		BaseDamage:        10,
		PowerAttackDamage: 20,
		CounterDamage:     5,
		HandSize:          3,
		ResultDelay:       5 * time.Second,
		AllowInstaWin:     true,
		StrictHand:        false,
	}
}
