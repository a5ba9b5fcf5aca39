package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/cardduel/internal/protocol"
)

// Upper bound on flushing queued frames after close
const drainTimeout = time.Second

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// conn is one accepted client. Outgoing frames are queued on send and
// written by writeLoop, so Send never blocks the caller.
type conn struct {
	id           string
	nc           net.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	logger       *slog.Logger
}

func newConn(nc net.Conn, cfg Config, logger *slog.Logger) *conn {
	id := uuid.NewString()
	return &conn{
		id:           id,
		nc:           nc,
		send:         make(chan []byte, cfg.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: cfg.WriteTimeout,
		logger: logger.With(
			slog.String("conn_id", id),
			slog.String("remote_addr", nc.RemoteAddr().String()),
		),
	}
}

func (c *conn) ID() string {
	return c.id
}

// Send queues a message for the writer. A client that stops reading long
// enough to fill its buffer is disconnected.
func (c *conn) Send(m protocol.Message) error {
	frame, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.close()
		return errSendBufferFull
	}
}

// writeLoop owns the socket's write side and closes it on exit. Frames
// still queued when the connection is closed are flushed first.
func (c *conn) writeLoop() {
	defer func() { _ = c.nc.Close() }()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame, c.writeDeadline()); err != nil {
				c.logger.Warn("write failed", slog.String("error", err.Error()))
				c.close()
				return
			}
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *conn) drain() {
	deadline := time.Now().Add(drainTimeout)
	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame, deadline); err != nil {
				c.logger.Debug("dropped queued frames on close", slog.String("error", err.Error()))
				return
			}
		default:
			return
		}
	}
}

func (c *conn) write(frame []byte, deadline time.Time) error {
	if !deadline.IsZero() {
		_ = c.nc.SetWriteDeadline(deadline)
	}
	_, err := c.nc.Write(frame)
	return err
}

func (c *conn) writeDeadline() time.Time {
	if c.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.writeTimeout)
}

// close stops the connection. The pending read is woken through its
// deadline and writeLoop closes the socket once the queue is flushed. Safe
// to call more than once and from any goroutine.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.nc.SetReadDeadline(time.Now())
	})
}
