// Package server accepts TCP game connections and runs one handler per
// seated client.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mcoot/cardduel/internal/middleware"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/protocol"
	"github.com/mcoot/cardduel/internal/services/duel"
)

const (
	readBufferSize = 4096

	// Message sent to a client that connects while both seats are taken
	serverFullMessage = "Server is full."
)

// Config holds connection-level settings
type Config struct {
	WriteTimeout time.Duration
	MaxFrameSize int
	SendBuffer   int
}

// DefaultConfig returns sensible connection defaults
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
		MaxFrameSize: protocol.DefaultMaxFrameSize,
		SendBuffer:   64,
	}
}

// Server is the game connection acceptor
type Server struct {
	cfg        Config
	controller *duel.Controller
	logger     *slog.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[*conn]struct{}
	wg    sync.WaitGroup
}

// New creates a Server that seats connections through controller
func New(cfg Config, controller *duel.Controller, logger *slog.Logger) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	return &Server{
		cfg:        cfg,
		controller: controller,
		logger:     logger.With(slog.String("component", "game-server")),
		conns:      make(map[*conn]struct{}),
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// Every live connection is closed before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.shutdown()
				return nil
			}
			s.logger.Warn("accept failed", slog.String("error", err.Error()))
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.accept(ctx, nc)
	}
}

// Addr returns the listening address, or nil before Serve is called
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) accept(ctx context.Context, nc net.Conn) {
	c := newConn(nc, s.cfg, s.logger)

	id, err := s.controller.Join(ctx, c)
	if err != nil {
		s.reject(c, err)
		return
	}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	c.logger = c.logger.With(slog.Int("player_id", int(id)))
	c.logger.Info("connection accepted")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.handle(ctx, c, id)
	}()
}

// reject tells the client why it was turned away and closes it
func (s *Server) reject(c *conn, reason error) {
	c.logger.Info("connection rejected", slog.String("reason", reason.Error()))
	if errors.Is(reason, model.ErrServerFull) {
		if c.writeTimeout > 0 {
			_ = c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}
		if err := protocol.WriteMessage(c.nc, protocol.Error{Message: serverFullMessage}); err != nil {
			c.logger.Debug("failed to send rejection", slog.String("error", err.Error()))
		}
	}
	// No writer runs for a rejected connection
	c.close()
	_ = c.nc.Close()
}

// handle is the read loop of one seated connection
func (s *Server) handle(ctx context.Context, c *conn, id model.PlayerID) {
	defer func() {
		if r := recover(); r != nil {
			middleware.LogPanic(c.logger, "panic in connection handler", r)
		}
		c.close()
		s.controller.Leave(context.WithoutCancel(ctx), c)

		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.logger.Info("connection closed")
	}()

	dec := protocol.NewDecoder(s.cfg.MaxFrameSize)
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			msgs, derr := dec.Feed(buf[:n])
			for _, m := range msgs {
				s.dispatch(ctx, c, id, m)
			}
			if derr != nil {
				c.logger.Warn("protocol error", slog.String("error", derr.Error()))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrDeadlineExceeded) {
				c.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *conn, id model.PlayerID, m protocol.Message) {
	if err := s.controller.Dispatch(ctx, id, m); err != nil {
		// Logic violations are ignored on the wire
		c.logger.Debug("message ignored",
			slog.String("type", string(m.MessageType())),
			slog.String("error", err.Error()),
		)
	}
}

// shutdown closes every live connection and waits for their handlers
func (s *Server) shutdown() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	s.wg.Wait()
	s.logger.Info("game server stopped", slog.Int("closed_connections", len(conns)))
}
