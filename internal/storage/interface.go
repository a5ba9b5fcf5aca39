package storage

import (
	"context"

	"github.com/mcoot/cardduel/internal/model"
)

// Storage defines the interface for match history persistence. It is an
// audit log: live game state is never read back from it.
type Storage interface {
	SaveMatch(ctx context.Context, match *model.MatchSummary) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.MatchSummary, error)

	// ListRecentMatches returns up to limit matches, most recently ended first
	ListRecentMatches(ctx context.Context, limit int) ([]*model.MatchSummary, error)
}
