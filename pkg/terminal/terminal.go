// Package terminal serves Zen runs over a websocket. A client sends a
// script, the server runs it and streams output lines, diagnostics and a
// final summary back.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antibyte/zen/pkg/auth"
	"github.com/antibyte/zen/pkg/expr"
	"github.com/antibyte/zen/pkg/history"
	"github.com/antibyte/zen/pkg/logger"
	"github.com/antibyte/zen/pkg/shared"
	"github.com/antibyte/zen/pkg/zen"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and owns the connected clients.
type Handler struct {
	upgrader  websocket.Upgrader
	clients   *ClientManager
	validator *RequestValidator
	journal   *history.Journal

	// NewEvaluator builds the evaluator for each run.
	NewEvaluator func() zen.Evaluator
}

// NewHandler creates a handler. journal may be nil to skip recording.
func NewHandler(journal *history.Journal) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		clients:   NewClientManager(getMaxClients()),
		validator: NewRequestValidator(),
		journal:   journal,
		NewEvaluator: func() zen.Evaluator {
			return expr.NewConfiguredEvaluator()
		},
	}
}

// checkOrigin accepts non-browser clients and same-host browser pages.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeHTTP handles /ws.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(logger.AreaServer, "Websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	client := &Client{
		conn:      conn,
		handler:   h,
		sessionID: uuid.New().String(),
		subject:   auth.SubjectFromContext(r.Context()),
		send:      make(chan []byte, getMaxChannelBuffer()),
		done:      make(chan struct{}),
	}

	if err := h.clients.AddClient(client); err != nil {
		logger.Warn(logger.AreaServer, "Refusing %s: %v", r.RemoteAddr, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(getWriteWait()))
		conn.Close()
		return
	}

	logger.Info(logger.AreaServer, "Session %s opened by %s (%s)", client.sessionID, client.subject, r.RemoteAddr)
	go client.writePump()
	client.writeMessage(shared.Message{Type: shared.MessageTypeSession, SessionID: client.sessionID})
	go client.readPump()
}

func (h *Handler) cleanupClient(c *Client) {
	c.stopRun()
	c.close()
	h.clients.RemoveClient(c.sessionID)
	logger.Info(logger.AreaServer, "Session %s closed", c.sessionID)
}

// Shutdown stops every active run.
func (h *Handler) Shutdown() {
	h.clients.StopAll()
}

// startRun launches req on c unless a run is already active.
func (h *Handler) startRun(c *Client, req shared.Request) {
	c.mu.Lock()
	if c.cancel != nil {
		active := c.runID
		c.mu.Unlock()
		c.sendStatus(active, "a run is already active")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), getMaxRunDuration())
	runID := uuid.New()
	c.cancel = cancel
	c.runID = runID.String()
	c.mu.Unlock()

	c.sendStatus(runID.String(), "started")
	go h.execute(ctx, cancel, c, runID, req)
}

func (h *Handler) execute(ctx context.Context, cancel context.CancelFunc, c *Client, runID uuid.UUID, req shared.Request) {
	defer cancel()
	id := runID.String()

	program, err := zen.LoadProgram(strings.NewReader(req.Source))
	if err != nil {
		h.finishRun(c)
		c.sendStatus(id, "rejected: "+err.Error())
		return
	}

	out := &lineWriter{client: c, runID: id}
	in := zen.New(program,
		zen.WithArgs(zen.ParseArgs(req.Args)),
		zen.WithOutput(out),
		zen.WithEvaluator(h.NewEvaluator()),
		zen.WithDiagnostics(func(e *zen.Error) {
			c.writeMessage(shared.Message{
				Type:    shared.MessageTypeDiagnostic,
				Content: e.Error(),
				RunID:   id,
				Line:    e.Line,
			})
		}),
	)

	logger.Info(logger.AreaServer, "Run %s started for session %s (%d lines)", id, c.sessionID, len(program))
	started := time.Now()
	runErr := in.Run(ctx)
	elapsed := time.Since(started)
	out.Flush()

	stats := in.Stats()
	content := "finished"
	switch {
	case errors.Is(runErr, context.DeadlineExceeded):
		content = "stopped: time limit reached"
	case runErr != nil:
		content = "stopped"
	}
	logger.Info(logger.AreaServer, "Run %s %s after %d steps in %v", id, content, stats.Steps, elapsed)

	if h.journal != nil {
		run := &history.Run{
			ID:          runID,
			Script:      "ws:" + c.subject,
			Digest:      history.Digest([]byte(req.Source)),
			Args:        req.Args,
			Origin:      history.OriginWebSocket,
			StartedAt:   started,
			Duration:    elapsed,
			Steps:       stats.Steps,
			Jumps:       stats.Jumps,
			Diagnostics: stats.Diagnostics,
			Printed:     stats.Printed,
			Cancelled:   runErr != nil,
		}
		if err := h.journal.Record(context.Background(), run); err != nil {
			logger.Error(logger.AreaServer, "Recording run %s failed: %v", id, err)
		}
	}

	h.finishRun(c)
	c.writeMessage(shared.Message{
		Type:    shared.MessageTypeDone,
		Content: content,
		RunID:   id,
		Stats: &shared.RunStats{
			Steps:       stats.Steps,
			Jumps:       stats.Jumps,
			Diagnostics: stats.Diagnostics,
			Printed:     stats.Printed,
			DurationMs:  elapsed.Milliseconds(),
		},
	})
}

// finishRun marks c idle so it accepts the next run.
func (h *Handler) finishRun(c *Client) {
	c.mu.Lock()
	c.cancel = nil
	c.runID = ""
	c.mu.Unlock()
}

// lineWriter turns interpreter output into one text message per line.
type lineWriter struct {
	client *Client
	runID  string
	buf    bytes.Buffer
}

var errClientGone = errors.New("client disconnected")

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		if !w.emit(strings.TrimSuffix(line, "\n")) {
			return len(p), errClientGone
		}
	}
	return len(p), nil
}

// Flush sends a trailing partial line.
func (w *lineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) bool {
	return w.client.writeMessage(shared.Message{Type: shared.MessageTypeText, Content: line, RunID: w.runID})
}
