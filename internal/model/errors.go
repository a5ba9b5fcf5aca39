package model

import "errors"

// Common errors used across the application
var (
	// Seat errors
	ErrServerFull    = errors.New("server is full")
	ErrUnknownPlayer = errors.New("player is not seated")

	// Round errors. These are logic violations: the connection handler
	// ignores them rather than reporting them to the client.
	ErrGameNotStarted     = errors.New("game has not started")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrRoundResolving     = errors.New("round is being resolved")
	ErrChoiceAlreadyMade  = errors.New("choice already made this round")
	ErrInvalidCard        = errors.New("invalid card")
	ErrCardNotInHand      = errors.New("card is not in hand")
	ErrInstaWinDisabled   = errors.New("insta-win is disabled")
	ErrUnexpectedMessage  = errors.New("message type not accepted from clients")

	// Match history errors
	ErrMatchNotFound = errors.New("match not found")
)
