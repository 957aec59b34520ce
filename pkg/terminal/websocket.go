package terminal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/antibyte/zen/pkg/logger"
	"github.com/antibyte/zen/pkg/shared"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. It runs at most one program at a
// time.
type Client struct {
	conn      *websocket.Conn
	handler   *Handler
	sessionID string
	subject   string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc // of the active run, nil when idle
	runID  string
}

// writeMessage queues msg for the write pump. It blocks while the queue
// is full and gives up once the connection is closed.
func (c *Client) writeMessage(msg shared.Message) bool {
	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error(logger.AreaServer, "Failed to encode message for session %s: %v", c.sessionID, err)
		return false
	}

	select {
	case c.send <- jsonBytes:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) sendStatus(runID, content string) {
	c.writeMessage(shared.Message{Type: shared.MessageTypeStatus, Content: content, RunID: runID})
}

// stopRun cancels the active run, if any.
func (c *Client) stopRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump decodes requests until the connection fails.
func (c *Client) readPump() {
	defer c.handler.cleanupClient(c)

	c.conn.SetReadLimit(getMaxMessageSize())
	c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn(logger.AreaServer, "Unexpected close for session %s: %v", c.sessionID, err)
			} else {
				logger.Debug(logger.AreaServer, "Connection closed for session %s: %v", c.sessionID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		req, err := c.handler.validator.Decode(message)
		if err != nil {
			logger.Warn(logger.AreaServer, "Rejected request from session %s: %v", c.sessionID, err)
			c.sendStatus("", "rejected: "+err.Error())
			continue
		}

		switch req.Type {
		case shared.RequestRun:
			c.handler.startRun(c, req)
		case shared.RequestStop:
			if !c.stopRun() {
				c.sendStatus("", "no active run")
			}
		}
	}
}

// writePump sends queued messages and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug(logger.AreaServer, "Write to session %s failed: %v", c.sessionID, err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug(logger.AreaServer, "Ping to session %s failed: %v", c.sessionID, err)
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
