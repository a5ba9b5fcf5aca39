package redis

import (
	"fmt"

	"github.com/mcoot/cardduel/internal/model"
)

// Key prefix for all duel data
const keyPrefix = "duel"

// matchKey returns the Redis key for a MatchSummary
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// recentMatchesKey returns the Redis key for the ZSET of match IDs scored by
// end time in unix milliseconds
func recentMatchesKey() string {
	return fmt.Sprintf("%s:idx:recent_matches", keyPrefix)
}
