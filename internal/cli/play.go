package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	gameclient "github.com/mcoot/cardduel/internal/client"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/protocol"
)

func newPlayCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the table and play from the terminal",
		Long: `Connect to the game server and play line by line.

Commands:
  ready <name>   Enter a name and ready up
  1, 2, 3 ...    Play the card with that number from your hand
  rock|paper|scissors
                 Play the first card of that rank from your hand
  win            Insta-win the current round
  quit           Leave the table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := gameclient.Dial(cmd.Context(), cfg.ServerAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.ServerAddr, err)
			}
			defer func() { _ = c.Close() }()

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			return playSession(cmd.Context(), c, cmd.InOrStdin(), out, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Ready up with this name as soon as a seat is assigned")

	return cmd
}

// session tracks what the terminal player needs to interpret commands
type session struct {
	self     model.PlayerID
	hand     []model.Card
	rejected string
}

func (s *session) observe(m protocol.Message) {
	switch v := m.(type) {
	case protocol.PlayerAssigned:
		s.self = v.ID
	case protocol.GameState:
		s.hand = slices.Clone(v.PlayerHand)
	case protocol.RoundResult:
		s.hand = nil
	case protocol.Error:
		s.rejected = v.Message
	}
}

// playSession relays server messages to out and commands from in to the
// server until the player quits, input ends or the connection closes
func playSession(ctx context.Context, c *gameclient.Client, in io.Reader, out *Output, name string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	msgs := make(chan protocol.Message)
	recvErr := make(chan error, 1)
	go func() {
		for {
			m, err := c.Receive(ctx)
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	s := &session{self: model.NoPlayer}
	for {
		select {
		case m := <-msgs:
			s.observe(m)
			out.PrintGameMessage(m, s.self)
			if _, ok := m.(protocol.PlayerAssigned); ok && name != "" {
				if err := c.Send(protocol.Ready{Username: name}); err != nil {
					return fmt.Errorf("send ready: %w", err)
				}
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			msg, quit, err := parseCommand(line, s.hand)
			if quit {
				return nil
			}
			if err != nil {
				if !out.JSON() {
					out.PrintMessage(err.Error())
				}
				continue
			}
			if msg == nil {
				continue
			}
			if err := c.Send(msg); err != nil {
				return fmt.Errorf("send %s: %w", msg.MessageType(), err)
			}

		case err := <-recvErr:
			switch {
			case s.rejected != "":
				return fmt.Errorf("server: %s", s.rejected)
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				if !out.JSON() {
					out.PrintMessage("Server closed the connection.")
				}
				return nil
			default:
				return err
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// parseCommand turns one input line into the message to send. A nil message
// with a nil error means there is nothing to do.
func parseCommand(line string, hand []model.Card) (msg protocol.Message, quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit", "q":
		return nil, true, nil
	case "win":
		return protocol.InstaWin{}, false, nil
	case "ready":
		return protocol.Ready{Username: strings.Join(fields[1:], " ")}, false, nil
	case string(model.RankRock), string(model.RankPaper), string(model.RankScissors):
		i := slices.IndexFunc(hand, func(c model.Card) bool { return c.Rank == model.Rank(cmd) })
		if i < 0 {
			return nil, false, fmt.Errorf("no %s in your hand", cmd)
		}
		return protocol.Choice{Choice: hand[i]}, false, nil
	default:
		n, convErr := strconv.Atoi(cmd)
		if convErr != nil {
			return nil, false, fmt.Errorf("unknown command %q", fields[0])
		}
		if len(hand) == 0 {
			return nil, false, errors.New("you have no cards to play right now")
		}
		if n < 1 || n > len(hand) {
			return nil, false, fmt.Errorf("pick a card between 1 and %d", len(hand))
		}
		return protocol.Choice{Choice: hand[n-1]}, false, nil
	}
}
