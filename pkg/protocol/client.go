// ABOUTME: WebSocket client for the voice agent channel
// ABOUTME: Handles connection, ordered frame delivery and JSON writes
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrNotReady is returned when audio is sent before the agent said ready
	ErrNotReady = errors.New("socket not ready")

	// ErrClosed is returned when writing to a closed client
	ErrClosed = errors.New("connection closed")
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 5 * time.Second
	frameBuffer             = 64
)

// Config holds client configuration
type Config struct {
	URL              string // base websocket URL
	AgentID          string
	Header           http.Header
	HandshakeTimeout time.Duration
}

// SocketURL appends the agentID query parameter to base
func SocketURL(base, agentID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid socket url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid socket url scheme: %q", u.Scheme)
	}

	q := u.Query()
	q.Set("agentID", agentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Client represents a websocket connection to an agent
type Client struct {
	conn   *websocket.Conn
	frames chan Frame
	done   chan struct{}

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	err    error
}

// Dial connects to the agent and starts reading frames
func Dial(ctx context.Context, config Config) (*Client, error) {
	target, err := SocketURL(config.URL, config.AgentID)
	if err != nil {
		return nil, err
	}

	timeout := config.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	log.Printf("Connecting to %s", target)
	conn, _, err := dialer.DialContext(ctx, target, config.Header)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := newClient(conn)
	go c.readMessages()
	return c, nil
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		frames: make(chan Frame, frameBuffer),
		done:   make(chan struct{}),
	}
}

// Frames delivers binary and text frames in wire order. It is closed when
// the connection ends; Err then reports why.
func (c *Client) Frames() <-chan Frame {
	return c.frames
}

// Err returns the read error that ended the connection, or nil after a
// normal close
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// readMessages reads and forwards incoming frames
func (c *Client) readMessages() {
	defer close(c.frames)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if !c.closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
				log.Printf("Read error: %v", err)
			}
			c.mu.Unlock()
			return
		}

		var frame Frame
		switch messageType {
		case websocket.BinaryMessage:
			frame = Frame{Binary: true, Data: data}
		case websocket.TextMessage:
			frame = Frame{Data: data}
		default:
			log.Printf("Unknown WebSocket message type: %d", messageType)
			continue
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

// SendJSON writes v as a text frame
func (c *Client) SendJSON(v any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close sends a close frame and shuts the connection. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	log.Printf("Connection closed")
	return err
}
