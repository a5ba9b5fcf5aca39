package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cardduel/internal/client"
	"github.com/mcoot/cardduel/internal/dependencies/clock"
	"github.com/mcoot/cardduel/internal/dependencies/mocks"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/protocol"
	"github.com/mcoot/cardduel/internal/services/duel"
	"github.com/mcoot/cardduel/internal/storage/memory"
	"github.com/mcoot/cardduel/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	controller *duel.Controller
	server     *Server
	addr       string
	cancel     context.CancelFunc
	served     chan error
	ctx        context.Context
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	cfg := duel.DefaultConfig()
	cfg.ResultDelay = time.Hour // Rounds never advance on their own here
	s.controller = duel.NewController(cfg, memory.New(), clock.New(), mocks.NewMockRandom(), nil, testutil.NopLogger())
	s.server = New(DefaultConfig(), s.controller, testutil.NopLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.addr = ln.Addr().String()

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.served = make(chan error, 1)
	go func() {
		s.served <- s.server.Serve(ctx, ln)
	}()

	var cancel context.CancelFunc
	s.ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	s.T().Cleanup(cancel)
}

func (s *ServerSuite) TearDownTest() {
	s.cancel()
	select {
	case err := <-s.served:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not stop")
	}
	s.controller.Close()
}

func (s *ServerSuite) dial() *client.Client {
	c, err := client.Dial(s.ctx, s.addr)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// dialSeated connects and waits for the seat assignment
func (s *ServerSuite) dialSeated(want model.PlayerID) *client.Client {
	c := s.dial()
	assigned, err := client.Await[protocol.PlayerAssigned](s.ctx, c)
	s.Require().NoError(err)
	s.Require().Equal(want, assigned.ID)
	return c
}

func (s *ServerSuite) TestAssignsPlayerIDs() {
	s.dialSeated(model.Player0)
	s.dialSeated(model.Player1)

	snap := s.controller.Snapshot()
	s.True(snap.Seats[0].Connected)
	s.True(snap.Seats[1].Connected)
}

func (s *ServerSuite) TestRejectsThirdConnection() {
	s.dialSeated(model.Player0)
	s.dialSeated(model.Player1)

	third := s.dial()
	m, err := third.Receive(s.ctx)
	s.Require().NoError(err)
	s.Equal(protocol.Error{Message: "Server is full."}, m)

	_, err = third.Receive(s.ctx)
	s.Error(err)

	// The seated players are unaffected
	snap := s.controller.Snapshot()
	s.True(snap.Seats[0].Connected)
	s.True(snap.Seats[1].Connected)
}

func (s *ServerSuite) TestRoundOverTCP() {
	ann := s.dialSeated(model.Player0)
	bo := s.dialSeated(model.Player1)

	s.Require().NoError(ann.Send(protocol.Ready{Username: "Ann"}))
	s.Require().NoError(bo.Send(protocol.Ready{Username: "Bo"}))

	for _, c := range []*client.Client{ann, bo} {
		st, err := client.Await[protocol.GameState](s.ctx, c)
		s.Require().NoError(err)
		s.Equal(model.StatusWaitingForChoices, st.RoundStatus)
		s.Len(st.PlayerHand, 3)
	}

	s.Require().NoError(ann.Send(protocol.Choice{Choice: model.Card{Rank: model.RankRock, Effect: model.EffectNone}}))
	s.Require().NoError(bo.Send(protocol.Choice{Choice: model.Card{Rank: model.RankScissors, Effect: model.EffectNone}}))

	for _, c := range []*client.Client{ann, bo} {
		res, err := client.Await[protocol.RoundResult](s.ctx, c)
		s.Require().NoError(err)
		s.Equal(model.Player0, res.RPSWinner)
		s.Equal(map[model.PlayerID]int{0: 100, 1: 90}, res.HPs)
		s.False(res.GameOver)
	}
}

func (s *ServerSuite) TestSplitWritesAreReassembled() {
	s.dialSeated(model.Player0)

	raw, err := net.Dial("tcp", s.addr)
	s.Require().NoError(err)
	defer raw.Close()
	bo := client.New(raw)
	_, err = client.Await[protocol.PlayerAssigned](s.ctx, bo)
	s.Require().NoError(err)

	frame, err := protocol.Encode(protocol.Ready{Username: "Bo"})
	s.Require().NoError(err)
	for i := range frame {
		_, err := raw.Write(frame[i : i+1])
		s.Require().NoError(err)
	}

	update, err := client.Await[protocol.PlayerUpdate](s.ctx, bo)
	s.Require().NoError(err)
	s.Equal("Bo is ready. Waiting for opponent...", update.Message)
}

func (s *ServerSuite) TestPeerCloseResetsTable() {
	ann := s.dialSeated(model.Player0)
	bo := s.dialSeated(model.Player1)
	s.Require().NoError(ann.Send(protocol.Ready{Username: "Ann"}))
	s.Require().NoError(bo.Send(protocol.Ready{Username: "Bo"}))
	_, err := client.Await[protocol.GameState](s.ctx, ann)
	s.Require().NoError(err)

	s.Require().NoError(bo.Close())

	st, err := client.Await[protocol.GameState](s.ctx, ann)
	s.Require().NoError(err)
	s.Equal("A player disconnected. Waiting for players...", st.Message)
	s.Equal(model.StatusEnteringUsername, st.RoundStatus)
	s.False(s.controller.Snapshot().GameStarted)

	// The freed seat is reused
	s.dialSeated(model.Player1)
}

func (s *ServerSuite) TestMalformedFrameDisconnectsOnlyThatClient() {
	ann := s.dialSeated(model.Player0)

	raw, err := net.Dial("tcp", s.addr)
	s.Require().NoError(err)
	defer raw.Close()
	bo := client.New(raw)
	_, err = client.Await[protocol.PlayerAssigned](s.ctx, bo)
	s.Require().NoError(err)

	_, err = raw.Write([]byte("garbage!!!{}"))
	s.Require().NoError(err)

	_, err = client.Await[protocol.GameState](s.ctx, bo)
	s.Error(err)

	st, err := client.Await[protocol.GameState](s.ctx, ann)
	s.Require().NoError(err)
	s.Equal("A player disconnected. Waiting for players...", st.Message)
	s.True(s.controller.Snapshot().Seats[0].Connected)
	s.False(s.controller.Snapshot().Seats[1].Connected)
}

func (s *ServerSuite) TestLogicViolationsKeepConnection() {
	ann := s.dialSeated(model.Player0)

	// Choice before the game has started is ignored
	s.Require().NoError(ann.Send(protocol.Choice{Choice: model.Card{Rank: model.RankRock, Effect: model.EffectNone}}))
	// Server-to-client message types are ignored too
	s.Require().NoError(ann.Send(protocol.GameState{Message: "spoofed"}))
	s.Require().NoError(ann.Send(protocol.Ready{Username: "Ann"}))

	update, err := client.Await[protocol.PlayerUpdate](s.ctx, ann)
	s.Require().NoError(err)
	s.Equal("Ann is ready. Waiting for opponent...", update.Message)
}

func (s *ServerSuite) TestShutdownClosesConnections() {
	ann := s.dialSeated(model.Player0)

	s.cancel()
	select {
	case err := <-s.served:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not stop")
	}
	// TearDownTest waits on served again
	s.served <- nil

	_, err := ann.Receive(s.ctx)
	s.Error(err)
	s.False(s.controller.Snapshot().Seats[0].Connected)
}
