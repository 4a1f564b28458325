package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ripple/debug"
)

// DefaultURL is where the glove server listens
const DefaultURL = "ws://localhost:8000/ws"

// ErrClosed is returned when sending on a socket that is not open
var ErrClosed = errors.New("socket not open")

const writeWait = 5 * time.Second

// Client is a WebSocket connection to the glove server. Inbound messages are
// delivered on Inbound() until the socket closes or the context passed to Dial
// is cancelled, after which the channel is closed.
type Client struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	inbound chan Inbound
	done    chan struct{}
}

// Dial connects to url and starts the read loop
func Dial(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		url = DefaultURL
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	debug.L().Info("websocket connected", zap.String("url", url))

	c := &Client{
		conn:    conn,
		inbound: make(chan Inbound, 64),
		done:    make(chan struct{}),
	}
	go c.readLoop(ctx, conn)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()
	return c, nil
}

// Inbound returns decoded server messages
func (c *Client) Inbound() <-chan Inbound {
	return c.inbound
}

// Done is closed once the read loop has exited
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Open reports whether the socket is usable
func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one command. Commands sent while the socket is closed are
// dropped with ErrClosed.
func (c *Client) Send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		debug.L().Warn("dropping command on closed socket", zap.String("type", cmd.Type))
		return ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	debug.Log("ws", "-> %s", cmd.Type)
	return nil
}

// Close sends a close frame and shuts the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return conn.Close()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	defer close(c.inbound)
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
			conn.Close()
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				debug.Log("ws", "read: %v", err)
			}
			return
		}
		msg, err := Decode(data)
		if err != nil {
			debug.L().Warn("bad server message", zap.Error(err))
			continue
		}
		debug.LogEvery(50, "ws", "<- %s", msg.MessageType())

		select {
		case c.inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
}
