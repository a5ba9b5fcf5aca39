// Package duel implements the authoritative two-player round state machine.
//
// A single Controller owns every seat, both players' state and the round
// phase. All mutation happens under one lock; messages to peers are queued
// while the lock is held so every client observes state changes in the
// order they were made.
package duel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/cardduel/internal/dependencies/clock"
	"github.com/mcoot/cardduel/internal/dependencies/random"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/protocol"
	"github.com/mcoot/cardduel/internal/storage"
)

const matchIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Peer is a connected client. Send must not block; a failed send is logged
// and otherwise ignored.
type Peer interface {
	ID() string
	Send(m protocol.Message) error
}

// EventPublisher receives table events for spectators
type EventPublisher interface {
	Publish(evt model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Event) {}

// Controller manages the seats and the round state machine
type Controller struct {
	cfg       Config
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	publisher EventPublisher
	logger    *slog.Logger

	mu         sync.Mutex
	seats      [model.MaxPlayers]Peer
	players    [model.MaxPlayers]*model.Player
	started    bool
	phase      model.Phase
	round      int
	startedAt  time.Time
	generation uint64 // Bumped whenever a pending result timer becomes stale
	pending    clock.Timer
}

// NewController creates a Controller with both seats empty
func NewController(
	cfg Config,
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	publisher EventPublisher,
	logger *slog.Logger,
) *Controller {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	c := &Controller{
		cfg:       cfg,
		storage:   storage,
		clock:     clock,
		random:    random,
		publisher: publisher,
		logger:    logger,
		phase:     model.PhaseWaitingForPlayers,
	}
	for _, id := range model.PlayerIDs() {
		c.players[id] = model.NewPlayer(id, cfg.InitialHP)
	}
	return c
}

// effects collects work produced under the lock that must run after it is
// released
type effects struct {
	events []model.Event
	match  *model.MatchSummary
}

func (c *Controller) flush(ctx context.Context, fx *effects) {
	if fx.match != nil {
		if err := c.storage.SaveMatch(ctx, fx.match); err != nil {
			c.logger.Error("failed to save match",
				slog.String("match_id", string(fx.match.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	for _, evt := range fx.events {
		c.publisher.Publish(evt)
	}
}

// Join seats a peer in the lowest free seat and tells it which one it got.
// Joining an already seated peer returns its existing seat.
func (c *Controller) Join(ctx context.Context, peer Peer) (model.PlayerID, error) {
	var fx effects
	defer c.flush(ctx, &fx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.seatOfLocked(peer); ok {
		return id, nil
	}

	id := model.NoPlayer
	for _, candidate := range model.PlayerIDs() {
		if c.seats[candidate] == nil {
			id = candidate
			break
		}
	}
	if id == model.NoPlayer {
		c.logger.Info("rejected player, server full", slog.String("conn_id", peer.ID()))
		return model.NoPlayer, model.ErrServerFull
	}

	c.seats[id] = peer
	p := c.players[id]
	p.Username = model.DefaultUsername(id)
	p.Ready = false
	p.Choice = nil
	p.Hand = nil
	if !c.started {
		p.HP = c.cfg.InitialHP
	}

	c.sendLocked(id, protocol.PlayerAssigned{ID: id})

	c.logger.Info("player joined",
		slog.String("conn_id", peer.ID()),
		slog.Int("player_id", int(id)),
	)
	fx.events = append(fx.events, c.playerEvent(model.EventPlayerJoined, id, model.PlayerPayload{Username: p.Username}))
	return id, nil
}

// Leave removes a peer from its seat. Both players are reset and any game in
// progress is abandoned. Leaving twice is a no-op.
func (c *Controller) Leave(ctx context.Context, peer Peer) {
	var fx effects
	defer c.flush(ctx, &fx)

	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.seatOfLocked(peer)
	if !ok {
		return
	}
	username := c.players[id].Username
	c.seats[id] = nil

	if c.started && c.phase != model.PhaseGameOver {
		fx.match = c.summaryLocked(model.OutcomeAbandoned, model.NoPlayer)
		c.logger.Info("game abandoned",
			slog.String("match_id", string(fx.match.ID)),
			slog.Int("rounds", fx.match.Rounds),
		)
	}

	c.resetTableLocked()
	c.broadcastStateLocked("A player disconnected. Waiting for players...", model.StatusEnteringUsername)

	c.logger.Info("player left",
		slog.String("conn_id", peer.ID()),
		slog.Int("player_id", int(id)),
	)
	fx.events = append(fx.events, c.playerEvent(model.EventPlayerLeft, id, model.PlayerPayload{Username: username}))
}

// Ready marks a player ready, optionally renaming it. The game starts once
// both seated players are ready.
func (c *Controller) Ready(ctx context.Context, id model.PlayerID, username string) error {
	var fx effects
	defer c.flush(ctx, &fx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seatedLocked(id) {
		return model.ErrUnknownPlayer
	}
	if c.started {
		return model.ErrGameAlreadyStarted
	}

	p := c.players[id]
	if name := strings.TrimSpace(username); name != "" {
		p.Username = name
	}
	p.Ready = true

	c.broadcastLocked(protocol.PlayerUpdate{
		Message:   fmt.Sprintf("%s is ready. Waiting for opponent...", p.Username),
		Usernames: c.usernameMapLocked(),
	})
	fx.events = append(fx.events, c.playerEvent(model.EventPlayerReady, id, model.PlayerPayload{Username: p.Username}))

	if c.seatedLocked(model.Player0) && c.seatedLocked(model.Player1) &&
		c.players[model.Player0].Ready && c.players[model.Player1].Ready {
		c.startGameLocked(&fx)
	}
	return nil
}

// Choose records a player's card for the current round. A second choice in
// the same round is rejected and the first one stands. The caller that
// completes the pair resolves the round.
func (c *Controller) Choose(ctx context.Context, id model.PlayerID, card model.Card) error {
	var fx effects
	defer c.flush(ctx, &fx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seatedLocked(id) {
		return model.ErrUnknownPlayer
	}
	if !c.started {
		return model.ErrGameNotStarted
	}
	if c.phase != model.PhaseWaitingForChoices {
		return model.ErrRoundResolving
	}

	p := c.players[id]
	if p.Choice != nil {
		return model.ErrChoiceAlreadyMade
	}
	if !card.Valid() {
		return fmt.Errorf("%w: %+v", model.ErrInvalidCard, card)
	}
	if c.cfg.StrictHand && !p.HasInHand(card) {
		return fmt.Errorf("%w: %s", model.ErrCardNotInHand, card)
	}

	chosen := card
	p.Choice = &chosen

	if c.players[model.Player0].Choice != nil && c.players[model.Player1].Choice != nil {
		c.resolveLocked(&fx)
	}
	return nil
}

// InstaWin ends the game in the requester's favor. Missing choices are filled
// with a Rock for the requester and Scissors for the opponent. It is honored
// during the result delay too; only a finished game ignores it.
func (c *Controller) InstaWin(ctx context.Context, id model.PlayerID) error {
	var fx effects
	defer c.flush(ctx, &fx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seatedLocked(id) {
		return model.ErrUnknownPlayer
	}
	if !c.cfg.AllowInstaWin {
		return model.ErrInstaWinDisabled
	}
	if !c.started {
		return model.ErrGameNotStarted
	}
	if c.phase == model.PhaseGameOver {
		return model.ErrRoundResolving
	}
	if c.phase == model.PhaseRoundResolving {
		// Cut the result delay short and resolve a forced round straight away
		c.cancelPendingLocked()
		c.round++
	}

	self, opp := c.players[id], c.players[id.Opponent()]
	opp.HP = 0
	if self.Choice == nil {
		self.Choice = &model.Card{Rank: model.RankRock, Effect: model.EffectNone}
	}
	if opp.Choice == nil {
		opp.Choice = &model.Card{Rank: model.RankScissors, Effect: model.EffectNone}
	}

	c.logger.Info("insta-win forced", slog.Int("player_id", int(id)))
	c.resolveLocked(&fx)
	return nil
}

// Dispatch routes a decoded client message to the matching operation
func (c *Controller) Dispatch(ctx context.Context, id model.PlayerID, msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.Ready:
		return c.Ready(ctx, id, m.Username)
	case protocol.Choice:
		return c.Choose(ctx, id, m.Choice)
	case protocol.InstaWin:
		return c.InstaWin(ctx, id)
	default:
		return fmt.Errorf("%w: %s", model.ErrUnexpectedMessage, msg.MessageType())
	}
}

// Snapshot returns the public view of the table
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := model.Snapshot{
		Phase:       c.phase,
		GameStarted: c.started,
		Round:       c.round,
		Seats:       make([]model.SeatSnapshot, 0, model.MaxPlayers),
	}
	for _, id := range model.PlayerIDs() {
		p := c.players[id]
		snap.Seats = append(snap.Seats, model.SeatSnapshot{
			ID:        id,
			Connected: c.seats[id] != nil,
			Username:  p.Username,
			HP:        p.HP,
			Ready:     p.Ready,
			HasChosen: p.Choice != nil,
		})
	}
	return snap
}

// Close cancels a pending result timer
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
}

func (c *Controller) startGameLocked(fx *effects) {
	c.started = true
	c.round = 1
	c.startedAt = c.clock.Now()
	for _, p := range c.players {
		p.Ready = false
	}
	c.startRoundLocked("Game started! Make your choice.")

	c.logger.Info("game started",
		slog.String("player0", c.players[model.Player0].Username),
		slog.String("player1", c.players[model.Player1].Username),
	)
	fx.events = append(fx.events, c.tableEvent(model.EventGameStarted, model.GameStartedPayload{
		Usernames: c.usernameArrayLocked(),
		HP:        c.hpArrayLocked(),
	}))
}

func (c *Controller) startRoundLocked(message string) {
	for _, p := range c.players {
		p.Choice = nil
		p.Hand = DealHand(c.random, c.cfg.HandSize)
	}
	c.phase = model.PhaseWaitingForChoices
	c.broadcastStateLocked(message, model.StatusWaitingForChoices)
}

// resolveLocked applies the round outcome, announces it and schedules the
// next transition. Both choices must be set.
func (c *Controller) resolveLocked(fx *effects) {
	p0, p1 := c.players[model.Player0], c.players[model.Player1]
	cards := [2]model.Card{*p0.Choice, *p1.Choice}
	usernames := c.usernameArrayLocked()

	outcome := ResolveRound(c.cfg, cards)
	if !outcome.Tie() {
		c.players[outcome.Winner.Opponent()].TakeDamage(outcome.DamageToLoser)
		c.players[outcome.Winner].TakeDamage(outcome.DamageToWinner)
	}
	hp := c.hpArrayLocked()

	message := roundMessage(outcome, usernames)
	status := model.StatusRoundOver
	overMessage, gameWinner, gameOver := gameOverMessage(hp, usernames)
	if gameOver {
		message = overMessage
		status = model.StatusGameOver
	}

	p0.Choice, p1.Choice = nil, nil

	c.broadcastLocked(protocol.RoundResult{
		Message:       message,
		Player0Choice: cards[model.Player0],
		Player1Choice: cards[model.Player1],
		RPSWinner:     outcome.Winner,
		HPs:           c.hpMapLocked(),
		RoundStatus:   status,
		GameOver:      gameOver,
		Usernames:     c.usernameMapLocked(),
	})

	c.logger.Info("round resolved",
		slog.Int("round", c.round),
		slog.Int("rps_winner", int(outcome.Winner)),
		slog.Int("hp0", hp[0]),
		slog.Int("hp1", hp[1]),
	)
	fx.events = append(fx.events, c.tableEvent(model.EventRoundResolved, model.RoundResolvedPayload{
		Round:   c.round,
		Cards:   cards,
		Winner:  outcome.Winner,
		HP:      hp,
		Message: message,
	}))

	if gameOver {
		c.phase = model.PhaseGameOver
		kind := model.OutcomeWin
		if gameWinner == model.NoPlayer {
			kind = model.OutcomeDraw
		}
		fx.match = c.summaryLocked(kind, gameWinner)
		c.logger.Info("game over",
			slog.String("match_id", string(fx.match.ID)),
			slog.String("outcome", string(kind)),
			slog.Int("rounds", c.round),
		)
		fx.events = append(fx.events, c.tableEvent(model.EventGameOver, model.GameOverPayload{Match: *fx.match}))
	} else {
		c.phase = model.PhaseRoundResolving
	}

	c.scheduleLocked()
}

func (c *Controller) scheduleLocked() {
	c.cancelPendingLocked()
	gen := c.generation
	c.pending = c.clock.AfterFunc(c.cfg.ResultDelay, func() {
		c.afterResult(gen)
	})
}

// afterResult runs once the result delay has elapsed
func (c *Controller) afterResult(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.pending = nil

	switch c.phase {
	case model.PhaseGameOver:
		c.resetTableLocked()
		c.broadcastStateLocked("Game Over! Enter a name to play again.", model.StatusEnteringUsername)
	case model.PhaseRoundResolving:
		c.round++
		c.startRoundLocked("New round! Make your choice.")
	}
}

func (c *Controller) cancelPendingLocked() {
	c.generation++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// resetTableLocked ends any game and restores both players to defaults.
// Seats are left as they are.
func (c *Controller) resetTableLocked() {
	c.cancelPendingLocked()
	c.started = false
	c.phase = model.PhaseWaitingForPlayers
	c.round = 0
	c.startedAt = time.Time{}
	for _, p := range c.players {
		p.Reset(c.cfg.InitialHP)
	}
}

func (c *Controller) summaryLocked(outcome model.Outcome, winner model.PlayerID) *model.MatchSummary {
	return &model.MatchSummary{
		ID:        model.MatchID(c.random.String(12, matchIDAlphabet)),
		Usernames: c.usernameArrayLocked(),
		FinalHP:   c.hpArrayLocked(),
		Winner:    winner,
		Outcome:   outcome,
		Rounds:    c.round,
		StartedAt: c.startedAt,
		EndedAt:   c.clock.Now(),
	}
}

func (c *Controller) seatOfLocked(peer Peer) (model.PlayerID, bool) {
	for _, id := range model.PlayerIDs() {
		if c.seats[id] != nil && c.seats[id].ID() == peer.ID() {
			return id, true
		}
	}
	return model.NoPlayer, false
}

func (c *Controller) seatedLocked(id model.PlayerID) bool {
	return id.Valid() && c.seats[id] != nil
}

// Dispatcher

func (c *Controller) sendLocked(id model.PlayerID, m protocol.Message) {
	peer := c.seats[id]
	if peer == nil {
		return
	}
	if err := peer.Send(m); err != nil {
		c.logger.Warn("failed to send message",
			slog.String("conn_id", peer.ID()),
			slog.Int("player_id", int(id)),
			slog.String("type", string(m.MessageType())),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) broadcastLocked(m protocol.Message) {
	for _, id := range model.PlayerIDs() {
		c.sendLocked(id, m)
	}
}

// broadcastStateLocked sends each seated player a game_state carrying its
// own hand
func (c *Controller) broadcastStateLocked(message string, status model.RoundStatus) {
	hps := c.hpMapLocked()
	usernames := c.usernameMapLocked()
	for _, id := range model.PlayerIDs() {
		hand := make([]model.Card, len(c.players[id].Hand))
		copy(hand, c.players[id].Hand)
		c.sendLocked(id, protocol.GameState{
			Message:     message,
			HPs:         hps,
			RoundStatus: status,
			PlayerHand:  hand,
			Usernames:   usernames,
		})
	}
}

func (c *Controller) usernameMapLocked() map[model.PlayerID]string {
	out := make(map[model.PlayerID]string, model.MaxPlayers)
	for _, p := range c.players {
		out[p.ID] = p.Username
	}
	return out
}

func (c *Controller) hpMapLocked() map[model.PlayerID]int {
	out := make(map[model.PlayerID]int, model.MaxPlayers)
	for _, p := range c.players {
		out[p.ID] = p.HP
	}
	return out
}

func (c *Controller) usernameArrayLocked() [2]string {
	return [2]string{c.players[model.Player0].Username, c.players[model.Player1].Username}
}

func (c *Controller) hpArrayLocked() [2]int {
	return [2]int{c.players[model.Player0].HP, c.players[model.Player1].HP}
}

func (c *Controller) playerEvent(t model.EventType, id model.PlayerID, payload any) model.Event {
	return model.Event{Type: t, Timestamp: c.clock.Now(), PlayerID: &id, Payload: payload}
}

func (c *Controller) tableEvent(t model.EventType, payload any) model.Event {
	return model.Event{Type: t, Timestamp: c.clock.Now(), Payload: payload}
}
