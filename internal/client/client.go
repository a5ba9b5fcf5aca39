// Package client is a Go client for the duel game protocol
package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/mcoot/cardduel/internal/protocol"
)

const readBufferSize = 4096

// aLongTimeAgo is a read deadline that unblocks a pending Read immediately
var aLongTimeAgo = time.Unix(1, 0)

// Client is one player connection to a duel server. Send and Receive may be
// called from different goroutines.
type Client struct {
	conn net.Conn

	wmu sync.Mutex

	rmu     sync.Mutex
	dec     *protocol.Decoder
	buf     []byte
	pending []protocol.Message
}

// Dial connects to a duel server
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection
func New(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		dec:  protocol.NewDecoder(0),
		buf:  make([]byte, readBufferSize),
	}
}

// Send writes one message
func (c *Client) Send(m protocol.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return protocol.WriteMessage(c.conn, m)
}

// Receive returns the next message from the server, blocking until one
// arrives, the connection fails, or ctx is done. A cancelled Receive leaves
// the client usable.
func (c *Client) Receive(ctx context.Context) (protocol.Message, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for len(c.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fired := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			_ = c.conn.SetReadDeadline(aLongTimeAgo)
			close(fired)
		})
		n, err := c.conn.Read(c.buf)
		if !stop() {
			<-fired
			_ = c.conn.SetReadDeadline(time.Time{})
		}

		if n > 0 {
			msgs, derr := c.dec.Feed(c.buf[:n])
			c.pending = append(c.pending, msgs...)
			if derr != nil {
				return nil, derr
			}
		}
		if len(c.pending) > 0 {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			return nil, err
		}
	}

	m := c.pending[0]
	c.pending = c.pending[1:]
	return m, nil
}

// Await receives until a message of type T arrives, discarding the others
func Await[T protocol.Message](ctx context.Context, c *Client) (T, error) {
	for {
		m, err := c.Receive(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if v, ok := m.(T); ok {
			return v, nil
		}
	}
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
