package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cardduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	base    time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) match(id string, endedAfter time.Duration) *model.MatchSummary {
	return &model.MatchSummary{
		ID:        model.MatchID(id),
		Usernames: [2]string{"Ann", "Bo"},
		FinalHP:   [2]int{40, 0},
		Winner:    model.Player0,
		Outcome:   model.OutcomeWin,
		Rounds:    8,
		StartedAt: s.base,
		EndedAt:   s.base.Add(endedAfter),
	}
}

func (s *StorageSuite) TestSaveAndGetMatch() {
	m := s.match("M1", time.Minute)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, m))

	got, err := s.storage.GetMatch(s.ctx, "M1")
	s.Require().NoError(err)
	s.Equal(m, got)
	s.Equal("Ann", got.WinnerName())
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestSavedMatchIsCopied() {
	m := s.match("M1", time.Minute)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, m))
	m.Rounds = 99

	got, err := s.storage.GetMatch(s.ctx, "M1")
	s.Require().NoError(err)
	s.Equal(8, got.Rounds)
}

func (s *StorageSuite) TestListRecentMatchesNewestFirst() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("M1", time.Minute)))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("M3", 3*time.Minute)))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("M2", 2*time.Minute)))

	got, err := s.storage.ListRecentMatches(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(model.MatchID("M3"), got[0].ID)
	s.Equal(model.MatchID("M2"), got[1].ID)
	s.Equal(model.MatchID("M1"), got[2].ID)
}

func (s *StorageSuite) TestListRecentMatchesHonorsLimit() {
	for i, id := range []string{"A", "B", "C", "D"} {
		s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match(id, time.Duration(i)*time.Minute)))
	}

	got, err := s.storage.ListRecentMatches(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(model.MatchID("D"), got[0].ID)

	got, err = s.storage.ListRecentMatches(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StorageSuite) TestListRecentMatchesEmpty() {
	got, err := s.storage.ListRecentMatches(s.ctx, 5)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}
